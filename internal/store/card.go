package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/abhisek/readlevel/internal/srs"
)

var cardColumns = []string{
	"id", "user_id", "kind", "ref",
	"due", "stability", "difficulty", "elapsed_days", "scheduled_days",
	"reps", "lapses", "state", "step", "last_review",
	"version", "created_at", "updated_at",
}

type cardRow struct {
	ID            string        `db:"id"`
	UserID        string        `db:"user_id"`
	Kind          string        `db:"kind"`
	Ref           string        `db:"ref"`
	Due           int64         `db:"due"`
	Stability     float64       `db:"stability"`
	Difficulty    float64       `db:"difficulty"`
	ElapsedDays   float64       `db:"elapsed_days"`
	ScheduledDays float64       `db:"scheduled_days"`
	Reps          int           `db:"reps"`
	Lapses        int           `db:"lapses"`
	State         int           `db:"state"`
	Step          int           `db:"step"`
	LastReview    sql.NullInt64 `db:"last_review"`
	Version       int64         `db:"version"`
	CreatedAt     int64         `db:"created_at"`
	UpdatedAt     int64         `db:"updated_at"`
}

func (row cardRow) record() CardRecord {
	rec := CardRecord{
		Card: srs.Card{
			ID:            row.ID,
			Due:           fromMillis(row.Due),
			Stability:     row.Stability,
			Difficulty:    row.Difficulty,
			ElapsedDays:   row.ElapsedDays,
			ScheduledDays: row.ScheduledDays,
			Reps:          row.Reps,
			Lapses:        row.Lapses,
			State:         srs.State(row.State),
			Step:          row.Step,
		},
		UserID:    row.UserID,
		Kind:      CardKind(row.Kind),
		Ref:       row.Ref,
		Version:   row.Version,
		CreatedAt: fromMillis(row.CreatedAt),
		UpdatedAt: fromMillis(row.UpdatedAt),
	}
	if row.LastReview.Valid {
		t := fromMillis(row.LastReview.Int64)
		rec.LastReview = &t
	}
	return rec
}

func lastReviewValue(c srs.Card) any {
	if c.LastReview == nil {
		return nil
	}
	return toMillis(*c.LastReview)
}

// cardRepo implements CardRepo.
type cardRepo struct {
	base
}

func (r *cardRepo) Create(ctx context.Context, rec *CardRecord) error {
	now := r.now()
	rec.Version = 1
	rec.CreatedAt, rec.UpdatedAt = now, now

	query, args := entsql.Dialect(r.dialect).
		Insert(tableCards).
		Columns(cardColumns...).
		Values(
			rec.ID, rec.UserID, string(rec.Kind), rec.Ref,
			toMillis(rec.Due), rec.Stability, rec.Difficulty, rec.ElapsedDays, rec.ScheduledDays,
			rec.Reps, rec.Lapses, int(rec.State), rec.Step, lastReviewValue(rec.Card),
			rec.Version, toMillis(now), toMillis(now),
		).
		Query()
	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return insertErr("card", rec.ID, err)
	}
	return nil
}

func (r *cardRepo) Get(ctx context.Context, id string) (*CardRecord, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(cardColumns...).
		From(entsql.Table(tableCards)).
		Where(entsql.EQ("id", id)).
		Query()

	var row cardRow
	if err := sqlx.GetContext(ctx, r.ext, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}
	rec := row.record()
	return &rec, nil
}

func (r *cardRepo) Update(ctx context.Context, rec *CardRecord) error {
	now := r.now()
	query, args := entsql.Dialect(r.dialect).
		Update(tableCards).
		Set("due", toMillis(rec.Due)).
		Set("stability", rec.Stability).
		Set("difficulty", rec.Difficulty).
		Set("elapsed_days", rec.ElapsedDays).
		Set("scheduled_days", rec.ScheduledDays).
		Set("reps", rec.Reps).
		Set("lapses", rec.Lapses).
		Set("state", int(rec.State)).
		Set("step", rec.Step).
		Set("last_review", lastReviewValue(rec.Card)).
		Set("kind", string(rec.Kind)).
		Set("ref", rec.Ref).
		Set("version", rec.Version+1).
		Set("updated_at", toMillis(now)).
		Where(entsql.And(entsql.EQ("id", rec.ID), entsql.EQ("version", rec.Version))).
		Query()

	if err := r.execVersioned(ctx, tableCards, rec.ID, query, args); err != nil {
		return err
	}
	rec.Version++
	rec.UpdatedAt = now
	return nil
}

func (r *cardRepo) Delete(ctx context.Context, id string) error {
	query, args := entsql.Dialect(r.dialect).
		Delete(tableCards).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *cardRepo) ListByUser(ctx context.Context, userID string, f CardFilter) ([]CardRecord, error) {
	pred := entsql.EQ("user_id", userID)
	if !f.DueBy.IsZero() {
		pred = entsql.And(pred, entsql.LTE("due", toMillis(f.DueBy)))
	}
	sel := entsql.Dialect(r.dialect).
		Select(cardColumns...).
		From(entsql.Table(tableCards)).
		Where(pred).
		OrderBy(entsql.Asc("due"), entsql.Asc("id"))
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	query, args := sel.Query()

	var rows []cardRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list cards of %s: %w", userID, err)
	}
	out := make([]CardRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out, nil
}

// execVersioned runs a version-guarded UPDATE and tells a lost race apart
// from a missing row.
func (b base) execVersioned(ctx context.Context, table, id, query string, args []any) error {
	res, err := b.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}
	if n > 0 {
		return nil
	}

	countQuery, countArgs := entsql.Dialect(b.dialect).
		Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Where(entsql.EQ("id", id)).
		Query()
	var count int
	if err := b.ext.QueryRowxContext(ctx, countQuery, countArgs...).Scan(&count); err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}
	if count == 0 {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", table, id, ErrConflict)
}
