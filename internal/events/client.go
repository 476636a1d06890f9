package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	// readTimeout bounds one decoder read; the server pings well inside it,
	// so an expired deadline means the connection is dead.
	readTimeout = 60 * time.Second

	// writeTimeout bounds control-message writes (subscribe, pong).
	writeTimeout = 5 * time.Second

	// reconnectBase and reconnectCeiling shape the reconnect backoff:
	// exponential from 1s, capped at 10s, retried until the context ends.
	reconnectBase    = 1 * time.Second
	reconnectCeiling = 10 * time.Second
)

// Client receives pushed CRM changes over a stream connection ("unix" or
// "tcp"). It is receive-only: it decodes events, answers pings, suppresses
// redelivered sequence ids, and reconnects on its own. Reconnect failures
// are logged, never surfaced - live updates are best effort and the board
// must keep working without them.
type Client struct {
	network    string
	addr       string
	pipelineID string

	mu      sync.Mutex
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
	closed  bool

	lastSequence int64
}

// NewClient creates a client for the given endpoint but does not connect.
func NewClient(network, addr, pipelineID string) *Client {
	return &Client{
		network:    network,
		addr:       addr,
		pipelineID: pipelineID,
	}
}

// Connect dials the endpoint and subscribes to the configured pipeline.
func (c *Client) Connect(ctx context.Context) error {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, c.network, c.addr)
	if err != nil {
		return fmt.Errorf("dialing event endpoint: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return fmt.Errorf("client closed")
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	c.encoder = json.NewEncoder(conn)
	c.decoder = json.NewDecoder(conn)
	c.mu.Unlock()

	if err := c.send(Message{Type: "subscribe", Subscribe: &SubscribeMessage{PipelineID: c.pipelineID}}); err != nil {
		conn.Close()
		return fmt.Errorf("sending subscription: %w", err)
	}
	return nil
}

// Subscribe switches the connection to another pipeline's events.
func (c *Client) Subscribe(pipelineID string) error {
	c.mu.Lock()
	c.pipelineID = pipelineID
	c.mu.Unlock()
	return c.send(Message{Type: "subscribe", Subscribe: &SubscribeMessage{PipelineID: pipelineID}})
}

// Listen returns the channel of pushed events. The client reads until the
// context ends, reconnecting as needed; the channel closes only when the
// context does or Close is called.
func (c *Client) Listen(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event, 16)
	go c.listenLoop(ctx, out)
	return out, nil
}

func (c *Client) listenLoop(ctx context.Context, out chan Event) {
	defer close(out)

	for {
		err := c.readEvents(ctx, out)
		if ctx.Err() != nil || c.isClosed() {
			return
		}
		slog.Warn("event connection lost, reconnecting", "error", err)
		if !c.reconnect(ctx) {
			return
		}
		slog.Info("event connection restored")
	}
}

// readEvents decodes messages until the connection fails.
func (c *Client) readEvents(ctx context.Context, out chan Event) error {
	for {
		c.mu.Lock()
		conn, decoder := c.conn, c.decoder
		c.mu.Unlock()
		if conn == nil {
			return fmt.Errorf("not connected")
		}
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}

		var msg Message
		if err := decoder.Decode(&msg); err != nil {
			return fmt.Errorf("decoding message: %w", err)
		}

		switch msg.Type {
		case "event":
			if msg.Event == nil {
				continue
			}
			// Redelivered or out-of-order events are dropped; the stores
			// must never see the same change twice.
			if msg.Event.SequenceID <= c.lastSequence {
				continue
			}
			c.lastSequence = msg.Event.SequenceID
			select {
			case out <- *msg.Event:
			case <-ctx.Done():
				return ctx.Err()
			}

		case "ping":
			if err := c.send(Message{Type: "pong"}); err != nil && !isConnectionError(err) {
				slog.Warn("failed to answer ping", "error", err)
			}
		}
	}
}

// reconnect redials with exponential backoff, 1s doubling to a 10s ceiling,
// until it succeeds or the context ends. Sequence tracking resets on a new
// connection - the server numbers each connection from 1.
func (c *Client) reconnect(ctx context.Context) bool {
	delay := reconnectBase
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		if c.isClosed() {
			return false
		}

		err := c.Connect(ctx)
		if err == nil {
			c.lastSequence = 0
			return true
		}
		slog.Debug("reconnect attempt failed", "attempt", attempt, "retry_in", delay, "error", err)

		delay *= 2
		if delay > reconnectCeiling {
			delay = reconnectCeiling
		}
	}
}

// send encodes one control message with a write deadline.
func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	return c.encoder.Encode(msg)
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close tears the connection down; the Listen channel closes once the
// reader notices.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// isConnectionError reports whether the error is ordinary connection
// teardown, which the reconnect loop handles without log noise.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "broken pipe") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "use of closed network connection")
}
