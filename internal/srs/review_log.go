package srs

import (
	"fmt"
	"sort"
	"time"
)

// ReviewLog records a single review of a card.
type ReviewLog struct {
	CardID     string    `json:"card_id"`
	Rating     Rating    `json:"rating"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// Reschedule rebuilds a card from scratch by replaying logs in
// chronological order against the scheduler's current parameters.
func (s *Scheduler) Reschedule(card Card, logs []ReviewLog) (Card, error) {
	ordered := make([]ReviewLog, len(logs))
	copy(ordered, logs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReviewedAt.Before(ordered[j].ReviewedAt)
	})

	created := card.Due
	if len(ordered) > 0 {
		created = ordered[0].ReviewedAt
	}
	c := NewCard(card.ID, created)

	for _, l := range ordered {
		if l.CardID != card.ID {
			return Card{}, fmt.Errorf("%w: card %s, log %s", ErrCardIDMismatch, card.ID, l.CardID)
		}
		var err error
		c, err = s.Schedule(c, l.Rating, l.ReviewedAt)
		if err != nil {
			return Card{}, err
		}
	}
	return c, nil
}

// SortDue returns the cards due at now, most overdue first. Ties are broken
// by card ID so the order is stable across calls.
func SortDue(cards []Card, now time.Time) []Card {
	var due []Card
	for _, c := range cards {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		oi, oj := due[i].OverdueDays(now), due[j].OverdueDays(now)
		if oi != oj {
			return oi > oj
		}
		return due[i].ID < due[j].ID
	})
	return due
}
