package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/abhisek/readlevel/internal/srs"
)

var reviewEventColumns = []string{
	"card_id", "user_id", "rating", "state_before", "state_after",
	"stability", "difficulty", "scheduled_days", "due",
}

type reviewEventRow struct {
	Sequence      int64   `db:"sequence"`
	Timestamp     int64   `db:"timestamp"`
	CardID        string  `db:"card_id"`
	UserID        string  `db:"user_id"`
	Rating        int     `db:"rating"`
	StateBefore   int     `db:"state_before"`
	StateAfter    int     `db:"state_after"`
	Stability     float64 `db:"stability"`
	Difficulty    float64 `db:"difficulty"`
	ScheduledDays float64 `db:"scheduled_days"`
	Due           int64   `db:"due"`
}

func (r *eventRepo) AppendReview(ctx context.Context, data ReviewEventData) (int64, error) {
	seq, err := r.insertEvent(ctx, tableReviewEvent, reviewEventColumns, []any{
		data.CardID, data.UserID, int(data.Rating), int(data.StateBefore), int(data.StateAfter),
		data.Stability, data.Difficulty, data.ScheduledDays, toMillis(data.Due),
	})
	if err != nil {
		return 0, fmt.Errorf("save review event: %w", err)
	}
	return seq, nil
}

func (r *eventRepo) QueryReviews(ctx context.Context, cardID string, opts QueryOpts) ([]ReviewEvent, error) {
	var preds []*entsql.Predicate
	if cardID != "" {
		preds = append(preds, entsql.EQ("card_id", cardID))
	}
	query, args := r.eventQuery(tableReviewEvent, append([]string{"sequence", "timestamp"}, reviewEventColumns...), opts, preds...)

	var rows []reviewEventRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query review events: %w", err)
	}
	out := make([]ReviewEvent, len(rows))
	for i, row := range rows {
		out[i] = ReviewEvent{
			Sequence:  row.Sequence,
			Timestamp: fromMillis(row.Timestamp),
			ReviewEventData: ReviewEventData{
				CardID:        row.CardID,
				UserID:        row.UserID,
				Rating:        srs.Rating(row.Rating),
				StateBefore:   srs.State(row.StateBefore),
				StateAfter:    srs.State(row.StateAfter),
				Stability:     row.Stability,
				Difficulty:    row.Difficulty,
				ScheduledDays: row.ScheduledDays,
				Due:           fromMillis(row.Due),
			},
		}
	}
	return out, nil
}
