package events

import (
	"errors"
	"os"
	"syscall"
)

// ErrorCode classifies connection failures for the startup diagnostics.
type ErrorCode int

const (
	ErrSocketNotFound ErrorCode = iota
	ErrSocketPermission
	ErrConnectionRefused
	ErrEndpointUnreachable
)

// ConnError is a connection failure with a remediation hint shown once at
// startup when the push channel is unavailable.
type ConnError struct {
	Code    ErrorCode
	Message string
	Hint    string
}

func (e *ConnError) Error() string {
	if e.Hint != "" {
		return e.Message + ". " + e.Hint
	}
	return e.Message
}

// ClassifyConnError maps common dial failures to a ConnError.
func ClassifyConnError(err error) *ConnError {
	if err == nil {
		return nil
	}

	if os.IsNotExist(err) {
		return &ConnError{
			Code:    ErrSocketNotFound,
			Message: "Event socket not found",
			Hint:    "Check the events.addr setting in config.yaml",
		}
	}

	if os.IsPermission(err) {
		return &ConnError{
			Code:    ErrSocketPermission,
			Message: "Permission denied opening event socket",
			Hint:    "Check the socket file permissions",
		}
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ECONNREFUSED {
		return &ConnError{
			Code:    ErrConnectionRefused,
			Message: "Event endpoint refused the connection",
			Hint:    "The CRM push service may be down; live updates resume automatically",
		}
	}

	return &ConnError{
		Code:    ErrEndpointUnreachable,
		Message: "Event endpoint unreachable",
		Hint:    "Live updates are disabled until the connection recovers",
	}
}
