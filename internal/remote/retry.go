package remote

import (
	"context"
	"log/slog"
	"time"
)

// Backoff is the shape of the delay between retry attempts.
type Backoff string

const (
	BackoffNone        Backoff = "none"
	BackoffImmediate   Backoff = "immediate"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// maxBackoffDelay caps the wait between attempts regardless of shape.
const maxBackoffDelay = 10 * time.Second

// Policy describes how a category of failure is retried.
type Policy struct {
	Backoff     Backoff
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // first wait for linear/exponential
	Increment   time.Duration // added per attempt for linear
}

// Retryable reports whether the policy allows another attempt at all.
func (p Policy) Retryable() bool {
	return p.Backoff != BackoffNone && p.MaxAttempts > 1
}

// Delay returns the wait before the given retry attempt (1 = first retry).
// Exponential doubles from BaseDelay; both shapes are capped at 10s.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	var d time.Duration
	switch p.Backoff {
	case BackoffImmediate:
		return 0
	case BackoffLinear:
		d = p.BaseDelay + time.Duration(attempt-1)*p.Increment
	case BackoffExponential:
		d = p.BaseDelay
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= maxBackoffDelay {
				break
			}
		}
	default:
		return 0
	}
	if d > maxBackoffDelay {
		d = maxBackoffDelay
	}
	return d
}

// PolicyFor returns the default retry policy for a failure category.
// Only network, timeout, server_error and conflict are retried; everything
// else fails the call on the first attempt.
func PolicyFor(cat Category) Policy {
	switch cat {
	case CategoryNetwork:
		return Policy{Backoff: BackoffExponential, MaxAttempts: 4, BaseDelay: 500 * time.Millisecond}
	case CategoryTimeout:
		return Policy{Backoff: BackoffLinear, MaxAttempts: 3, BaseDelay: time.Second, Increment: time.Second}
	case CategoryServerError:
		return Policy{Backoff: BackoffExponential, MaxAttempts: 3, BaseDelay: time.Second}
	case CategoryConflict:
		return Policy{Backoff: BackoffImmediate, MaxAttempts: 2}
	}
	return Policy{Backoff: BackoffNone, MaxAttempts: 1}
}

// Do runs fn, retrying per the classified category's policy. The error of
// the final attempt is returned unchanged, so the caller surfaces exactly
// one failure per logical action no matter how many attempts ran.
func Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		policy := PolicyFor(Classify(err))
		if !policy.Retryable() || attempt >= policy.MaxAttempts {
			return err
		}

		delay := policy.Delay(attempt)
		slog.Debug("retrying remote call",
			"op", op,
			"attempt", attempt,
			"category", Classify(err),
			"delay", delay,
			"error", err)

		if delay > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(delay):
			}
		} else if ctx.Err() != nil {
			return err
		}
	}
}
