package store

import (
	"context"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// sequenceCounter hands out the global monotonic sequence shared by every
// event table and by snapshots. Each event type lives in its own table, so
// per-table keys cannot order a review against the level change it caused.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level. Next runs on whatever handle the
// caller is using so a transaction sees its own increments.
type sequenceCounter struct {
	mu sync.Mutex
}

// newSequenceCounter ensures the tracking table exists and is seeded.
func newSequenceCounter(ctx context.Context, db *sqlx.DB) (*sequenceCounter, error) {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val BIGINT NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO global_sequence (id, next_val) VALUES (1, 1) ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context, q sqlx.QueryerContext) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := q.QueryRowxContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo on top of the sequence counter.
type eventRepo struct {
	base
	seq *sequenceCounter
}

// insertEvent assigns the next sequence and timestamp and inserts one row.
func (r *eventRepo) insertEvent(ctx context.Context, table string, columns []string, values []any) (int64, error) {
	seq, err := r.seq.Next(ctx, r.ext)
	if err != nil {
		return 0, err
	}

	query, args := entsql.Dialect(r.dialect).
		Insert(table).
		Columns(append([]string{"sequence", "timestamp"}, columns...)...).
		Values(append([]any{seq, toMillis(r.now())}, values...)...).
		Query()
	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return seq, nil
}

// eventQuery builds a select over an event table honoring opts.
// Results are in ascending sequence order.
func (r *eventRepo) eventQuery(table string, columns []string, opts QueryOpts, preds ...*entsql.Predicate) (string, []any) {
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", toMillis(opts.From)))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", toMillis(opts.To)))
	}

	sel := entsql.Dialect(r.dialect).
		Select(columns...).
		From(entsql.Table(table))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Latest {
		sel.OrderBy(entsql.Desc("sequence"))
	} else {
		sel.OrderBy(entsql.Asc("sequence"))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	return sel.Query()
}
