package level

import (
	"errors"
	"fmt"
)

// ErrNoAnswers is returned by QuizAccuracy for an empty answer sheet.
var ErrNoAnswers = errors.New("level: quiz has no answers")

// InvalidSignalError reports a rating, accuracy or XP value outside its
// documented domain.
type InvalidSignalError struct {
	Field string
	Value string
	Want  string
}

func (e *InvalidSignalError) Error() string {
	return fmt.Sprintf("level: invalid %s %s (want %s)", e.Field, e.Value, e.Want)
}
