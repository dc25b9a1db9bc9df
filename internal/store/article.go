package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

var articleColumns = []string{
	"id", "title", "content", "source",
	"classified", "raw_score", "ra_level", "cefr_level",
	"average_rating", "rating_count", "read_count",
	"version", "created_at", "updated_at",
}

type articleRow struct {
	ID            string  `db:"id"`
	Title         string  `db:"title"`
	Content       string  `db:"content"`
	Source        string  `db:"source"`
	Classified    int     `db:"classified"`
	RawScore      float64 `db:"raw_score"`
	RALevel       int     `db:"ra_level"`
	CEFRLevel     string  `db:"cefr_level"`
	AverageRating float64 `db:"average_rating"`
	RatingCount   int     `db:"rating_count"`
	ReadCount     int     `db:"read_count"`
	Version       int64   `db:"version"`
	CreatedAt     int64   `db:"created_at"`
	UpdatedAt     int64   `db:"updated_at"`
}

func (row articleRow) article() Article {
	return Article{
		ID:            row.ID,
		Title:         row.Title,
		Content:       row.Content,
		Source:        row.Source,
		Classified:    row.Classified != 0,
		RawScore:      row.RawScore,
		RALevel:       row.RALevel,
		CEFRLevel:     row.CEFRLevel,
		AverageRating: row.AverageRating,
		RatingCount:   row.RatingCount,
		ReadCount:     row.ReadCount,
		Version:       row.Version,
		CreatedAt:     fromMillis(row.CreatedAt),
		UpdatedAt:     fromMillis(row.UpdatedAt),
	}
}

// articleRepo implements ArticleRepo.
type articleRepo struct {
	base
}

func (r *articleRepo) Create(ctx context.Context, a *Article) error {
	now := r.now()
	a.Version = 1
	a.CreatedAt, a.UpdatedAt = now, now

	query, args := entsql.Dialect(r.dialect).
		Insert(tableArticles).
		Columns(articleColumns...).
		Values(
			a.ID, a.Title, a.Content, a.Source,
			boolInt(a.Classified), a.RawScore, a.RALevel, a.CEFRLevel,
			a.AverageRating, a.RatingCount, a.ReadCount,
			a.Version, toMillis(now), toMillis(now),
		).
		Query()
	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return insertErr("article", a.ID, err)
	}
	return nil
}

func (r *articleRepo) Get(ctx context.Context, id string) (*Article, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(articleColumns...).
		From(entsql.Table(tableArticles)).
		Where(entsql.EQ("id", id)).
		Query()

	var row articleRow
	if err := sqlx.GetContext(ctx, r.ext, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	a := row.article()
	return &a, nil
}

func (r *articleRepo) Update(ctx context.Context, a *Article) error {
	now := r.now()
	query, args := entsql.Dialect(r.dialect).
		Update(tableArticles).
		Set("title", a.Title).
		Set("content", a.Content).
		Set("source", a.Source).
		Set("classified", boolInt(a.Classified)).
		Set("raw_score", a.RawScore).
		Set("ra_level", a.RALevel).
		Set("cefr_level", a.CEFRLevel).
		Set("average_rating", a.AverageRating).
		Set("rating_count", a.RatingCount).
		Set("read_count", a.ReadCount).
		Set("version", a.Version+1).
		Set("updated_at", toMillis(now)).
		Where(entsql.And(entsql.EQ("id", a.ID), entsql.EQ("version", a.Version))).
		Query()

	if err := r.execVersioned(ctx, tableArticles, a.ID, query, args); err != nil {
		return err
	}
	a.Version++
	a.UpdatedAt = now
	return nil
}

func (r *articleRepo) List(ctx context.Context, f ArticleFilter) ([]Article, error) {
	sel := entsql.Dialect(r.dialect).
		Select(articleColumns...).
		From(entsql.Table(tableArticles)).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("id"))
	if f.Unclassified {
		sel.Where(entsql.EQ("classified", 0))
	}
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	query, args := sel.Query()

	var rows []articleRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	out := make([]Article, len(rows))
	for i, row := range rows {
		out[i] = row.article()
	}
	return out, nil
}
