package llm

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-level",
		Description: "A level estimate",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"level":      map[string]any{"type": "string", "enum": []any{"A1", "A2", "B1", "B2", "C1", "C2"}},
				"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"reason":     map[string]any{"type": "string"},
			},
			"required": []any{"level", "confidence"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"level":"B1","confidence":0.8,"reason":"short sentences"}`, false},
		{"optional field omitted", `{"level":"C2","confidence":1}`, false},
		{"missing required", `{"level":"A1"}`, true},
		{"wrong type", `{"level":"A1","confidence":"high"}`, true},
		{"out of range", `{"level":"A1","confidence":1.5}`, true},
		{"invalid enum", `{"level":"D1","confidence":0.5}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
		{"trailing data", `{"level":"B1","confidence":0.5} {}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(testSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var invErr *ErrInvalidResponse
				if !errors.As(err, &invErr) {
					t.Fatalf("expected ErrInvalidResponse, got: %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`plain text`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedObjects(t *testing.T) {
	schema := &Schema{
		Name: "test-nested",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"article": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string"},
					},
					"required": []any{"title"},
				},
				"levels": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "integer"},
				},
			},
			"required": []any{"article", "levels"},
		},
	}

	valid := json.RawMessage(`{"article":{"title":"Tides"},"levels":[7,8,9]}`)
	if err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	invalid := json.RawMessage(`{"article":{"title":"Tides"},"levels":["seven"]}`)
	if err := validateResponse(schema, invalid); err == nil {
		t.Fatal("expected error for wrong array item type")
	}
}

func TestCheckContent_MaxTokens(t *testing.T) {
	req := Request{Schema: testSchema()}
	err := checkContent(req, json.RawMessage(`{"level":"B1"`), StopMaxTokens)
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %v", err)
	}

	// Free text cut short is still returned.
	if err := checkContent(Request{}, json.RawMessage(`partial`), StopMaxTokens); err != nil {
		t.Fatalf("unexpected error without schema: %v", err)
	}
}

func TestErrorForStatus(t *testing.T) {
	cause := errors.New("boom")

	var rl *ErrRateLimit
	if err := errorForStatus(http.StatusTooManyRequests, cause); !errors.As(err, &rl) {
		t.Fatalf("429: expected ErrRateLimit, got: %T", err)
	}

	err := errorForStatus(http.StatusServiceUnavailable, cause)
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("503: expected ErrProviderUnavailable, got: %T", err)
	}
	if unavail.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", unavail.Status, http.StatusServiceUnavailable)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not unwrapped")
	}
	if !strings.Contains(err.Error(), "HTTP 503") {
		t.Errorf("message %q does not name the status", err.Error())
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ErrProviderUnavailable{}, "llm: provider unavailable"},
		{&ErrProviderUnavailable{Err: errors.New("dial tcp")}, "llm: provider unavailable: dial tcp"},
		{&ErrRateLimit{Err: errors.New("slow")}, "llm: rate limited: slow"},
		{&ErrRateLimit{RetryAfter: 2e9, Err: errors.New("slow")}, "llm: rate limited, retry in 2s: slow"},
		{&ErrInvalidResponse{Err: errors.New("missing level")}, "llm: response rejected: missing level"},
		{&ErrMaxTokensExceeded{Content: json.RawMessage(`{"lev`)}, "llm: response cut off at max tokens after 5 bytes"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestUserTurn(t *testing.T) {
	msgs := UserTurn("read this")
	if len(msgs) != 1 || msgs[0].Role != RoleUser || msgs[0].Content != "read this" {
		t.Fatalf("UserTurn() = %+v", msgs)
	}
}
