package srs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// State is the learning stage of a card.
type State int

const (
	New        State = iota // Saved but never reviewed.
	Learning                // Walking through the initial learning steps.
	Review                  // Long-term review cycle.
	Relearning              // Lapsed, walking through relearning steps.
)

var stateNames = [...]string{New: "New", Learning: "Learning", Review: "Review", Relearning: "Relearning"}

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	return s >= New && s <= Relearning
}

func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState parses a state name, ignoring case.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("srs: unknown state %q", name)
}

func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("srs: invalid state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

func (s *State) UnmarshalText(text []byte) error {
	v, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s State) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("srs: invalid state %s", data)
	}
	return s.UnmarshalText([]byte(str))
}
