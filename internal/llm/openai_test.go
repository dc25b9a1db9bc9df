package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(config), model: "gpt-4o-mini"}
}

func openaiCompletion(content, finish string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		})
	}
}

func openaiError(status int, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": kind, "message": kind},
		})
	}
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	var got openai.ChatCompletionRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		openaiCompletion(`{"level":"A2","confidence":0.9}`, "stop")(w, r)
	}

	p := newTestOpenAIProvider(t, handler)
	resp, err := p.Generate(context.Background(), Request{
		System:    "You grade reading difficulty.",
		Messages:  []Message{{Role: RoleUser, Content: "I like apples."}},
		Schema:    testSchema(),
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != StopEnd {
		t.Fatalf("stop reason = %q, want %q", resp.StopReason, StopEnd)
	}

	if len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("messages = %+v, want system then user", got.Messages)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.JSONSchema == nil || got.ResponseFormat.JSONSchema.Name != "test-level" {
		t.Fatalf("response format = %+v", got.ResponseFormat)
	}
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	p := newTestOpenAIProvider(t, openaiCompletion(`{"level":`, "length"))
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "x"}},
		Schema:    testSchema(),
		MaxTokens: 2,
	})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	t.Run("rate limit", func(t *testing.T) {
		p := newTestOpenAIProvider(t, openaiError(http.StatusTooManyRequests, "tokens"))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}, MaxTokens: 100})
		var rl *ErrRateLimit
		if !errors.As(err, &rl) {
			t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		p := newTestOpenAIProvider(t, openaiError(http.StatusInternalServerError, "server_error"))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}, MaxTokens: 100})
		var unavail *ErrProviderUnavailable
		if !errors.As(err, &unavail) {
			t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
		}
		if unavail.Status != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", unavail.Status, http.StatusInternalServerError)
		}
	})
}

func TestOpenAIProvider_BaseURLOverride(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-mini",
		BaseURL: "https://llm.example.test/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4.1-mini" {
		t.Fatalf("model = %q, want gpt-4.1-mini", p.ModelID())
	}
}
