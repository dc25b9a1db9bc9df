package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrRateLimit is a 429 from the provider. RetryProvider waits RetryAfter
// when the provider sent one and backs off otherwise.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("llm: rate limited, retry in %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("llm: rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers transport failures and non-429 error
// statuses. Status is zero when no HTTP response was received.
type ErrProviderUnavailable struct {
	Status int
	Err    error
}

func (e *ErrProviderUnavailable) Error() string {
	switch {
	case e.Err == nil:
		return "llm: provider unavailable"
	case e.Status != 0:
		return fmt.Sprintf("llm: provider unavailable (HTTP %d): %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("llm: provider unavailable: %v", e.Err)
	}
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrInvalidResponse means the model answered but the answer failed the
// request schema. Content keeps the rejected output for logging.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return "llm: response rejected: " + e.Err.Error()
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means a structured answer hit MaxTokens before it
// was complete. It is never retried.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return fmt.Sprintf("llm: response cut off at max tokens after %d bytes", len(e.Content))
}
