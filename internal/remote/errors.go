package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Category classifies a remote failure. The category decides the user-facing
// message and whether (and how) the call is retried; severity never does.
type Category string

const (
	CategoryNetwork        Category = "network"
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryValidation     Category = "validation"
	CategoryNotFound       Category = "not_found"
	CategoryConflict       Category = "conflict"
	CategoryServerError    Category = "server_error"
	CategoryTimeout        Category = "timeout"
	CategoryUnknown        Category = "unknown"
)

// Severity chooses presentation emphasis for a failure. It has no effect on
// retry behavior.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error is a classified remote failure.
type Error struct {
	Op         string // the logical operation, e.g. "deals.update"
	Category   Category
	Severity   Severity
	Message    string // user-facing message
	StatusCode int    // HTTP status, 0 for transport failures
	Err        error  // underlying cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Message, e.Category, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Message, e.Category)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify returns the category of any error. Classified *Error values keep
// their category; context deadline and net timeouts map to timeout; other
// transport-level errors map to network; anything else is unknown.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var re *Error
	if errors.As(err, &re) {
		return re.Category
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CategoryTimeout
		}
		return CategoryNetwork
	}

	return CategoryUnknown
}

// SeverityOf returns the presentation severity for an error, falling back to
// the category default when the error is not a classified *Error.
func SeverityOf(err error) Severity {
	var re *Error
	if errors.As(err, &re) && re.Severity != "" {
		return re.Severity
	}
	return defaultSeverity(Classify(err))
}

// defaultSeverity maps a category to the emphasis used when none was set.
func defaultSeverity(cat Category) Severity {
	switch cat {
	case CategoryValidation, CategoryNotFound:
		return SeverityLow
	case CategoryConflict, CategoryTimeout:
		return SeverityMedium
	case CategoryNetwork, CategoryServerError:
		return SeverityHigh
	case CategoryAuthentication, CategoryAuthorization:
		return SeverityCritical
	}
	return SeverityMedium
}

// UserMessage returns the message shown in a notification for an error.
func UserMessage(err error) string {
	var re *Error
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	switch Classify(err) {
	case CategoryNetwork:
		return "Network problem. Check your connection."
	case CategoryAuthentication:
		return "Session expired. Sign in again."
	case CategoryAuthorization:
		return "You don't have permission to do that."
	case CategoryValidation:
		return "The server rejected the request as invalid."
	case CategoryNotFound:
		return "That record no longer exists."
	case CategoryConflict:
		return "Someone else changed this record. Refreshing."
	case CategoryTimeout:
		return "The server took too long to respond."
	case CategoryServerError:
		return "The server hit an internal error."
	}
	return "Something went wrong."
}

// newError builds a classified error with the category's default severity.
func newError(op string, cat Category, statusCode int, message string, err error) *Error {
	return &Error{
		Op:         op,
		Category:   cat,
		Severity:   defaultSeverity(cat),
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}
