package events

import "context"

// Source is the push channel the app consumes. Depending on the interface
// rather than *Client lets tests feed scripted events.
type Source interface {
	// Connect establishes the connection and subscribes to the configured
	// pipeline.
	Connect(ctx context.Context) error

	// Listen returns the channel of pushed events; the implementation owns
	// reconnection.
	Listen(ctx context.Context) (<-chan Event, error)

	// Subscribe switches the connection to another pipeline's events.
	Subscribe(pipelineID string) error

	// Close tears the connection down and ends the Listen channel.
	Close() error
}

var _ Source = (*Client)(nil)
