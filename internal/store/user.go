package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/abhisek/readlevel/internal/level"
)

var userColumns = []string{"id", "ra_level", "cefr_level", "xp", "version", "created_at", "updated_at"}

type userRow struct {
	ID        string `db:"id"`
	RALevel   int    `db:"ra_level"`
	CEFRLevel string `db:"cefr_level"`
	XP        int    `db:"xp"`
	Version   int64  `db:"version"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (row userRow) record() UserRecord {
	return UserRecord{
		ID:        row.ID,
		Level:     level.UserLevel{RALevel: row.RALevel, CEFRLevel: row.CEFRLevel, XP: row.XP},
		Version:   row.Version,
		CreatedAt: fromMillis(row.CreatedAt),
		UpdatedAt: fromMillis(row.UpdatedAt),
	}
}

// userRepo implements UserRepo.
type userRepo struct {
	base
}

func (r *userRepo) Create(ctx context.Context, rec *UserRecord) error {
	now := r.now()
	rec.Version = 1
	rec.CreatedAt, rec.UpdatedAt = now, now

	query, args := entsql.Dialect(r.dialect).
		Insert(tableUsers).
		Columns(userColumns...).
		Values(rec.ID, rec.Level.RALevel, rec.Level.CEFRLevel, rec.Level.XP, rec.Version, toMillis(now), toMillis(now)).
		Query()
	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return insertErr("user", rec.ID, err)
	}
	return nil
}

func (r *userRepo) Get(ctx context.Context, id string) (*UserRecord, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(userColumns...).
		From(entsql.Table(tableUsers)).
		Where(entsql.EQ("id", id)).
		Query()

	var row userRow
	if err := sqlx.GetContext(ctx, r.ext, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	rec := row.record()
	return &rec, nil
}

func (r *userRepo) Update(ctx context.Context, rec *UserRecord) error {
	now := r.now()
	query, args := entsql.Dialect(r.dialect).
		Update(tableUsers).
		Set("ra_level", rec.Level.RALevel).
		Set("cefr_level", rec.Level.CEFRLevel).
		Set("xp", rec.Level.XP).
		Set("version", rec.Version+1).
		Set("updated_at", toMillis(now)).
		Where(entsql.And(entsql.EQ("id", rec.ID), entsql.EQ("version", rec.Version))).
		Query()

	if err := r.execVersioned(ctx, tableUsers, rec.ID, query, args); err != nil {
		return err
	}
	rec.Version++
	rec.UpdatedAt = now
	return nil
}

func (r *userRepo) List(ctx context.Context) ([]UserRecord, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(userColumns...).
		From(entsql.Table(tableUsers)).
		OrderBy(entsql.Asc("id")).
		Query()

	var rows []userRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]UserRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out, nil
}
