package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

var snapshotColumns = []string{"sequence", "user_id", "timestamp", "data"}

type snapshotRow struct {
	Sequence  int64  `db:"sequence"`
	UserID    string `db:"user_id"`
	Timestamp int64  `db:"timestamp"`
	Data      string `db:"data"`
}

// snapshotRepo implements SnapshotRepo. Snapshots draw their sequence from
// the global counter so they order against events.
type snapshotRepo struct {
	base
	seq *sequenceCounter
}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}
	seq, err := r.seq.Next(ctx, r.ext)
	if err != nil {
		return err
	}
	now := r.now()

	query, args := entsql.Dialect(r.dialect).
		Insert(tableSnapshots).
		Columns(snapshotColumns...).
		Values(seq, snap.UserID, toMillis(now), string(data)).
		Query()
	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	snap.Sequence, snap.Timestamp = seq, now
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context, userID string) (*Snapshot, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(snapshotColumns...).
		From(entsql.Table(tableSnapshots)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("sequence")).
		Limit(1).
		Query()

	var row snapshotRow
	if err := sqlx.GetContext(ctx, r.ext, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	var data SnapshotData
	if err := json.Unmarshal([]byte(row.Data), &data); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
	}
	return &Snapshot{
		Sequence:  row.Sequence,
		UserID:    row.UserID,
		Timestamp: fromMillis(row.Timestamp),
		Data:      data,
	}, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, userID string, keep int) error {
	// Find the sequence of the newest snapshot that falls outside keep.
	query, args := entsql.Dialect(r.dialect).
		Select("sequence").
		From(entsql.Table(tableSnapshots)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("sequence")).
		Limit(1).
		Offset(keep).
		Query()

	var threshold int64
	if err := sqlx.GetContext(ctx, r.ext, &threshold, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil // fewer than keep snapshots exist
		}
		return fmt.Errorf("query snapshots for prune: %w", err)
	}

	del, delArgs := entsql.Dialect(r.dialect).
		Delete(tableSnapshots).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.LTE("sequence", threshold))).
		Query()
	if _, err := r.ext.ExecContext(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
