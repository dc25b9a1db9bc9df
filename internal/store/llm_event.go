package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var llmEventColumns = []string{
	"provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

type llmEventRow struct {
	Sequence     int64  `db:"sequence"`
	Timestamp    int64  `db:"timestamp"`
	Provider     string `db:"provider"`
	Model        string `db:"model"`
	Purpose      string `db:"purpose"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	LatencyMs    int64  `db:"latency_ms"`
	Success      int    `db:"success"`
	ErrorMessage string `db:"error_message"`
	RequestBody  string `db:"request_body"`
	ResponseBody string `db:"response_body"`
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	_, err := r.insertEvent(ctx, tableLLMRequest, llmEventColumns, []any{
		data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
		data.LatencyMs, boolInt(data.Success), data.ErrorMessage, data.RequestBody, data.ResponseBody,
	})
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	query, args := r.eventQuery(tableLLMRequest, append([]string{"sequence", "timestamp"}, llmEventColumns...), opts)

	var rows []llmEventRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query LLM request events: %w", err)
	}
	out := make([]LLMRequestEvent, len(rows))
	for i, row := range rows {
		out[i] = LLMRequestEvent{
			Sequence:  row.Sequence,
			Timestamp: fromMillis(row.Timestamp),
			LLMRequestEventData: LLMRequestEventData{
				Provider:     row.Provider,
				Model:        row.Model,
				Purpose:      row.Purpose,
				InputTokens:  row.InputTokens,
				OutputTokens: row.OutputTokens,
				LatencyMs:    row.LatencyMs,
				Success:      row.Success != 0,
				ErrorMessage: row.ErrorMessage,
				RequestBody:  row.RequestBody,
				ResponseBody: row.ResponseBody,
			},
		}
	}
	return out, nil
}
