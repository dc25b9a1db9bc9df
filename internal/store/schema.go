package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

const (
	tableUsers       = "users"
	tableCards       = "cards"
	tableArticles    = "articles"
	tableReviewEvent = "review_events"
	tableLevelEvent  = "level_events"
	tableLLMRequest  = "llm_request_events"
	tableSnapshots   = "snapshots"
)

// Column types shared by SQLite and PostgreSQL. Times are unix milliseconds.
const (
	typeID    = "VARCHAR(64)"
	typeText  = "TEXT"
	typeInt   = "INTEGER"
	typeLong  = "BIGINT"
	typeFloat = "DOUBLE PRECISION"
)

func col(name, typ string) *entsql.ColumnBuilder {
	return entsql.Column(name).Type(typ).Attr("NOT NULL")
}

func nullableCol(name, typ string) *entsql.ColumnBuilder {
	return entsql.Column(name).Type(typ)
}

// schema returns the CREATE TABLE statements for every table.
func schema(d string) []*entsql.TableBuilder {
	b := entsql.Dialect(d)
	return []*entsql.TableBuilder{
		b.CreateTable(tableUsers).IfNotExists().
			Columns(
				col("id", typeID),
				col("ra_level", typeInt),
				col("cefr_level", typeID),
				col("xp", typeLong),
				col("version", typeLong),
				col("created_at", typeLong),
				col("updated_at", typeLong),
			).
			PrimaryKey("id"),

		b.CreateTable(tableCards).IfNotExists().
			Columns(
				col("id", typeID),
				col("user_id", typeID),
				col("kind", typeID),
				col("ref", typeText),
				col("due", typeLong),
				col("stability", typeFloat),
				col("difficulty", typeFloat),
				col("elapsed_days", typeFloat),
				col("scheduled_days", typeFloat),
				col("reps", typeInt),
				col("lapses", typeInt),
				col("state", typeInt),
				col("step", typeInt),
				nullableCol("last_review", typeLong),
				col("version", typeLong),
				col("created_at", typeLong),
				col("updated_at", typeLong),
			).
			PrimaryKey("id"),

		b.CreateTable(tableArticles).IfNotExists().
			Columns(
				col("id", typeID),
				col("title", typeText),
				col("content", typeText),
				col("source", typeText),
				col("classified", typeInt),
				col("raw_score", typeFloat),
				col("ra_level", typeInt),
				col("cefr_level", typeID),
				col("average_rating", typeFloat),
				col("rating_count", typeInt),
				col("read_count", typeInt),
				col("version", typeLong),
				col("created_at", typeLong),
				col("updated_at", typeLong),
			).
			PrimaryKey("id"),

		b.CreateTable(tableReviewEvent).IfNotExists().
			Columns(
				col("sequence", typeLong),
				col("timestamp", typeLong),
				col("card_id", typeID),
				col("user_id", typeID),
				col("rating", typeInt),
				col("state_before", typeInt),
				col("state_after", typeInt),
				col("stability", typeFloat),
				col("difficulty", typeFloat),
				col("scheduled_days", typeFloat),
				col("due", typeLong),
			).
			PrimaryKey("sequence"),

		b.CreateTable(tableLevelEvent).IfNotExists().
			Columns(
				col("sequence", typeLong),
				col("timestamp", typeLong),
				col("user_id", typeID),
				col("policy", typeID),
				col("article_id", typeID),
				col("input", typeText),
				col("ra_before", typeInt),
				col("ra_after", typeInt),
				col("cefr_after", typeID),
				col("xp", typeLong),
			).
			PrimaryKey("sequence"),

		b.CreateTable(tableLLMRequest).IfNotExists().
			Columns(
				col("sequence", typeLong),
				col("timestamp", typeLong),
				col("provider", typeID),
				col("model", typeText),
				col("purpose", typeID),
				col("input_tokens", typeInt),
				col("output_tokens", typeInt),
				col("latency_ms", typeLong),
				col("success", typeInt),
				col("error_message", typeText),
				col("request_body", typeText),
				col("response_body", typeText),
			).
			PrimaryKey("sequence"),

		b.CreateTable(tableSnapshots).IfNotExists().
			Columns(
				col("sequence", typeLong),
				col("user_id", typeID),
				col("timestamp", typeLong),
				col("data", typeText),
			).
			PrimaryKey("sequence"),
	}
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS cards_user_due ON cards (user_id, due)`,
	`CREATE INDEX IF NOT EXISTS articles_classified ON articles (classified)`,
	`CREATE INDEX IF NOT EXISTS review_events_card ON review_events (card_id)`,
	`CREATE INDEX IF NOT EXISTS level_events_user ON level_events (user_id)`,
	`CREATE INDEX IF NOT EXISTS snapshots_user ON snapshots (user_id, sequence)`,
}

// migrate creates missing tables and indexes. It never alters existing ones.
func migrate(ctx context.Context, db *sqlx.DB, d string) error {
	for _, t := range schema(d) {
		query, args := t.Query()
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
