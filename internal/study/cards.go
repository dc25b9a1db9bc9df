package study

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/readlevel/internal/srs"
	"github.com/abhisek/readlevel/internal/store"
)

// AddCard saves a new vocabulary or sentence card for userID. It is due
// immediately.
func (s *Service) AddCard(ctx context.Context, userID string, kind store.CardKind, ref string) (*store.CardRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("add card: user is required")
	}
	switch kind {
	case "":
		kind = store.KindVocabulary
	case store.KindVocabulary, store.KindSentence:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	rec := &store.CardRecord{
		Card:   srs.NewCard(uuid.NewString(), s.now()),
		UserID: userID,
		Kind:   kind,
		Ref:    ref,
	}
	if err := s.store.Cards().Create(ctx, rec); err != nil {
		return nil, err
	}
	s.log.Info("card added", "card", rec.ID, "user", userID, "kind", string(kind))
	return rec, nil
}

// Card returns a stored card.
func (s *Service) Card(ctx context.Context, cardID string) (*store.CardRecord, error) {
	return s.store.Cards().Get(ctx, cardID)
}

// Review applies rating to a card at the current time and records the
// review. The card is left untouched when the rating or card is invalid.
func (s *Service) Review(ctx context.Context, cardID string, rating srs.Rating) (*store.CardRecord, error) {
	now := s.now()
	var out *store.CardRecord
	err := s.inTx(ctx, func(r store.Repos) error {
		rec, err := r.Cards.Get(ctx, cardID)
		if err != nil {
			return err
		}
		before := rec.State

		next, err := s.sched.Schedule(rec.Card, rating, now)
		if err != nil {
			return err
		}
		rec.Card = next
		if err := r.Cards.Update(ctx, rec); err != nil {
			return err
		}

		_, err = r.Events.AppendReview(ctx, store.ReviewEventData{
			CardID:        rec.ID,
			UserID:        rec.UserID,
			Rating:        rating,
			StateBefore:   before,
			StateAfter:    next.State,
			Stability:     next.Stability,
			Difficulty:    next.Difficulty,
			ScheduledDays: next.ScheduledDays,
			Due:           next.Due,
		})
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("card reviewed",
		"card", out.ID,
		"rating", rating.String(),
		"state", out.State.String(),
		"due", out.Due.Format(time.RFC3339),
	)
	return out, nil
}

// Preview returns the card that each rating would produce now, without
// saving anything.
func (s *Service) Preview(ctx context.Context, cardID string) (map[srs.Rating]srs.Card, error) {
	rec, err := s.store.Cards().Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return s.sched.Preview(rec.Card, s.now())
}

// Due returns userID's cards due now, most overdue first. limit <= 0
// returns them all.
func (s *Service) Due(ctx context.Context, userID string, limit int) ([]store.CardRecord, error) {
	now := s.now()
	recs, err := s.store.Cards().ListByUser(ctx, userID, store.CardFilter{DueBy: now})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]store.CardRecord, len(recs))
	cards := make([]srs.Card, len(recs))
	for i, rec := range recs {
		byID[rec.ID] = rec
		cards[i] = rec.Card
	}

	ordered := srs.SortDue(cards, now)
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	out := make([]store.CardRecord, len(ordered))
	for i, c := range ordered {
		out[i] = byID[c.ID]
	}
	return out, nil
}

// Reschedule rebuilds a card from its recorded reviews under the current
// scheduler settings. Used after the weights or steps change.
func (s *Service) Reschedule(ctx context.Context, cardID string) (*store.CardRecord, error) {
	var out *store.CardRecord
	err := s.inTx(ctx, func(r store.Repos) error {
		rec, err := r.Cards.Get(ctx, cardID)
		if err != nil {
			return err
		}
		events, err := r.Events.QueryReviews(ctx, cardID, store.QueryOpts{})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			out = rec
			return nil
		}

		logs := make([]srs.ReviewLog, len(events))
		for i, e := range events {
			logs[i] = srs.ReviewLog{CardID: e.CardID, Rating: e.Rating, ReviewedAt: e.Timestamp}
		}
		next, err := s.sched.Reschedule(rec.Card, logs)
		if err != nil {
			return err
		}
		rec.Card = next
		if err := r.Cards.Update(ctx, rec); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("card rescheduled", "card", out.ID, "due", out.Due.Format(time.RFC3339))
	return out, nil
}
