package study

import (
	"context"

	"github.com/abhisek/readlevel/internal/store"
)

// snapshotVersion is bumped when SnapshotData changes shape.
const snapshotVersion = 1

// Progress returns the reader's most recent snapshot, or nil.
func (s *Service) Progress(ctx context.Context, userID string) (*store.Snapshot, error) {
	return s.store.Snapshots().Latest(ctx, userID)
}

// snapshot records user's level and card counts and drops old snapshots.
func (s *Service) snapshot(ctx context.Context, r store.Repos, user *store.UserRecord) error {
	cards, err := r.Cards.ListByUser(ctx, user.ID, store.CardFilter{})
	if err != nil {
		return err
	}

	now := s.now()
	data := store.SnapshotData{
		Version:    snapshotVersion,
		Level:      user.Level,
		CardStates: make(map[string]int),
	}
	for _, c := range cards {
		data.CardStates[c.State.String()]++
		if c.IsDue(now) {
			data.DueCards++
		}
	}

	if err := r.Snapshots.Save(ctx, &store.Snapshot{UserID: user.ID, Data: data}); err != nil {
		return err
	}
	return r.Snapshots.Prune(ctx, user.ID, s.keep)
}
