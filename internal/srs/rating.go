package srs

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Rating is the reviewer's assessment of how well a card was recalled.
type Rating int

const (
	Again Rating = iota + 1 // Forgot the card.
	Hard                    // Recalled with serious effort.
	Good                    // Recalled after a short hesitation.
	Easy                    // Recalled instantly.
)

// Ratings lists every valid rating in ascending order.
var Ratings = [...]Rating{Again, Hard, Good, Easy}

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

var (
	_ fmt.Stringer             = Rating(0)
	_ json.Marshaler           = Rating(0)
	_ json.Unmarshaler         = (*Rating)(nil)
	_ encoding.TextMarshaler   = Rating(0)
	_ encoding.TextUnmarshaler = (*Rating)(nil)
)

// IsValid reports whether r is one of Again, Hard, Good or Easy.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// ParseRating accepts a rating name (case-insensitive) or its ordinal 1-4.
func ParseRating(s string) (Rating, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		r := Rating(n)
		if !r.IsValid() {
			return 0, &InvalidSignalError{Field: "rating", Value: s}
		}
		return r, nil
	}
	for _, r := range Ratings {
		if strings.EqualFold(ratingNames[r], s) {
			return r, nil
		}
	}
	return 0, &InvalidSignalError{Field: "rating", Value: s}
}

func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, &InvalidSignalError{Field: "rating", Value: strconv.Itoa(int(r))}
	}
	return []byte(ratingNames[r]), nil
}

func (r *Rating) UnmarshalText(text []byte) error {
	v, err := ParseRating(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// MarshalJSON encodes the rating as its name.
func (r Rating) MarshalJSON() ([]byte, error) {
	text, err := r.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON accepts either the rating name or its ordinal.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return &InvalidSignalError{Field: "rating", Value: string(data)}
		}
		s = strconv.Itoa(n)
	}
	return r.UnmarshalText([]byte(s))
}
