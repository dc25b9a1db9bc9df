package srs

import (
	"fmt"
	"math"
	"time"
)

// Card is the scheduling state of one saved vocabulary word or sentence.
type Card struct {
	ID            string     `json:"id"`
	Due           time.Time  `json:"due"`
	Stability     float64    `json:"stability"`      // days until recall drops to 90%
	Difficulty    float64    `json:"difficulty"`     // [MinDifficulty, MaxDifficulty]
	ElapsedDays   float64    `json:"elapsed_days"`   // days since the previous review, at the last review
	ScheduledDays float64    `json:"scheduled_days"` // interval chosen at the last review
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	State         State      `json:"state"`
	Step          int        `json:"step"`        // learning or relearning step index
	LastReview    *time.Time `json:"last_review"` // nil before the first review
}

// NewCard returns a never-reviewed card that is due immediately.
func NewCard(id string, now time.Time) Card {
	return Card{
		ID:    id,
		Due:   now,
		State: New,
	}
}

// IsDue reports whether the card can be reviewed at now.
func (c Card) IsDue(now time.Time) bool {
	return !now.Before(c.Due)
}

// OverdueDays returns how many days past due the card is, or 0.
func (c Card) OverdueDays(now time.Time) float64 {
	if now.Before(c.Due) {
		return 0
	}
	return now.Sub(c.Due).Hours() / 24.0
}

func (c Card) clone() Card {
	out := c
	if c.LastReview != nil {
		v := *c.LastReview
		out.LastReview = &v
	}
	return out
}

// validate checks the card against the invariants required before scheduling.
func (c Card) validate(now time.Time) error {
	fail := func(format string, args ...any) error {
		return &InvalidCardStateError{CardID: c.ID, State: c.State, Reason: fmt.Sprintf(format, args...)}
	}

	if !c.State.IsValid() {
		return fail("unknown state")
	}
	if c.Reps < 0 || c.Lapses < 0 {
		return fail("negative counters (reps=%d, lapses=%d)", c.Reps, c.Lapses)
	}
	if c.Step < 0 {
		return fail("negative step %d", c.Step)
	}
	if c.ElapsedDays < 0 || c.ScheduledDays < 0 {
		return fail("negative day counts")
	}

	if c.State == New {
		if c.LastReview != nil || c.Reps > 0 || c.Lapses > 0 {
			return fail("new card already has review history")
		}
		return nil
	}

	if c.LastReview == nil {
		return fail("missing last review")
	}
	if now.Before(*c.LastReview) {
		return fail("review time %s precedes last review %s", now.Format(time.RFC3339), c.LastReview.Format(time.RFC3339))
	}
	if c.Due.Before(*c.LastReview) {
		return fail("due date precedes last review")
	}
	if !(c.Stability > 0) || math.IsInf(c.Stability, 0) {
		return fail("stability %v is not positive", c.Stability)
	}
	if math.IsNaN(c.Difficulty) || c.Difficulty < MinDifficulty || c.Difficulty > MaxDifficulty {
		return fail("difficulty %v outside [%v, %v]", c.Difficulty, MinDifficulty, MaxDifficulty)
	}
	return nil
}
