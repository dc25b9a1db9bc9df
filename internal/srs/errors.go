package srs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters is returned when a weight lies outside its bounds.
	ErrInvalidParameters = errors.New("srs: parameters out of bounds")

	// ErrCardIDMismatch is returned by Reschedule when a log belongs to another card.
	ErrCardIDMismatch = errors.New("srs: card ID mismatch in review log")
)

// InvalidCardStateError reports a card whose fields break the scheduling
// invariants. The card is never repaired.
type InvalidCardStateError struct {
	CardID string
	State  State
	Reason string
}

func (e *InvalidCardStateError) Error() string {
	if e.CardID == "" {
		return fmt.Sprintf("srs: invalid %s card: %s", e.State, e.Reason)
	}
	return fmt.Sprintf("srs: invalid %s card %s: %s", e.State, e.CardID, e.Reason)
}

// InvalidSignalError reports a rating outside Again..Easy.
type InvalidSignalError struct {
	Field string
	Value string
}

func (e *InvalidSignalError) Error() string {
	return fmt.Sprintf("srs: invalid %s %q", e.Field, e.Value)
}
