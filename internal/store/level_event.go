package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

var levelEventColumns = []string{
	"user_id", "policy", "article_id", "input", "ra_before", "ra_after", "cefr_after", "xp",
}

type levelEventRow struct {
	Sequence  int64  `db:"sequence"`
	Timestamp int64  `db:"timestamp"`
	UserID    string `db:"user_id"`
	Policy    string `db:"policy"`
	ArticleID string `db:"article_id"`
	Input     string `db:"input"`
	RABefore  int    `db:"ra_before"`
	RAAfter   int    `db:"ra_after"`
	CEFRAfter string `db:"cefr_after"`
	XP        int    `db:"xp"`
}

func (r *eventRepo) AppendLevel(ctx context.Context, data LevelEventData) (int64, error) {
	seq, err := r.insertEvent(ctx, tableLevelEvent, levelEventColumns, []any{
		data.UserID, data.Policy, data.ArticleID, data.Input,
		data.RABefore, data.RAAfter, data.CEFRAfter, data.XP,
	})
	if err != nil {
		return 0, fmt.Errorf("save level event: %w", err)
	}
	return seq, nil
}

func (r *eventRepo) QueryLevels(ctx context.Context, userID string, opts QueryOpts) ([]LevelEvent, error) {
	var preds []*entsql.Predicate
	if userID != "" {
		preds = append(preds, entsql.EQ("user_id", userID))
	}
	query, args := r.eventQuery(tableLevelEvent, append([]string{"sequence", "timestamp"}, levelEventColumns...), opts, preds...)

	var rows []levelEventRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query level events: %w", err)
	}
	out := make([]LevelEvent, len(rows))
	for i, row := range rows {
		out[i] = LevelEvent{
			Sequence:  row.Sequence,
			Timestamp: fromMillis(row.Timestamp),
			LevelEventData: LevelEventData{
				UserID:    row.UserID,
				Policy:    row.Policy,
				ArticleID: row.ArticleID,
				Input:     row.Input,
				RABefore:  row.RABefore,
				RAAfter:   row.RAAfter,
				CEFRAfter: row.CEFRAfter,
				XP:        row.XP,
			},
		}
	}
	return out, nil
}
