package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/readlevel/internal/level"
	"github.com/abhisek/readlevel/internal/srs"
	"github.com/abhisek/readlevel/internal/store"
)

func TestParseAnswers(t *testing.T) {
	tests := []struct {
		in      string
		want    []bool
		wantErr bool
	}{
		{"1,0,1", []bool{true, false, true}, false},
		{" y, n ,yes,", []bool{true, false, true}, false},
		{"true,false", []bool{true, false}, false},
		{"", nil, true},
		{"1,maybe", nil, true},
	}
	for _, tt := range tests {
		got, err := parseAnswers(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAnswers(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("parseAnswers(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := parseAnswers(" , "); !errors.Is(err, level.ErrNoAnswers) {
		t.Errorf("blank sheet error = %v, want ErrNoAnswers", err)
	}
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Minute, "10m"},
		{90 * time.Second, "2m"},
		{3 * time.Hour, "3.0h"},
		{36 * time.Hour, "1.5d"},
	}
	for _, tt := range tests {
		if got := formatInterval(tt.d); got != tt.want {
			t.Errorf("formatInterval(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestUsageByModel(t *testing.T) {
	ev := func(model string, ok bool, in, out int) store.LLMRequestEvent {
		return store.LLMRequestEvent{LLMRequestEventData: store.LLMRequestEventData{
			Model: model, Success: ok, InputTokens: in, OutputTokens: out,
		}}
	}
	got := usageByModel([]store.LLMRequestEvent{
		ev("gpt-4o-mini", true, 100, 20),
		ev("claude-haiku-4-5-20251001", false, 50, 0),
		ev("gpt-4o-mini", true, 10, 5),
	})
	want := []modelUsage{
		{Model: "gpt-4o-mini", Calls: 2, InputTokens: 110, OutputTokens: 25},
		{Model: "claude-haiku-4-5-20251001", Calls: 1, Failures: 1, InputTokens: 50},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("usageByModel = %+v, want %+v", got, want)
	}
}

func TestDescribe(t *testing.T) {
	_, err := srs.ParseRating("meh")
	if got := describe(fmt.Errorf("review: %w", err)); !strings.HasPrefix(got, "bad input: rating") {
		t.Errorf("describe(srs signal) = %q", got)
	}

	_, err = level.NewAdjuster(level.Config{}).Adjust(level.RatingDelta{Rating: 9})
	if got := describe(err); !strings.Contains(got, "want 1-5") {
		t.Errorf("describe(level signal) = %q", got)
	}

	if got := describe(store.ErrConflict); !strings.Contains(got, "try again") {
		t.Errorf("describe(conflict) = %q", got)
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"card", "add"}, {"card", "review"}, {"card", "preview"}, {"card", "due"},
		{"level", "quiz"}, {"level", "rate"}, {"level", "xp"}, {"level", "table"},
		{"classify"}, {"batch", "import"}, {"batch", "run"}, {"batch", "watch"},
		{"llm", "list"}, {"version"},
	} {
		c, _, err := rootCmd.Find(path)
		if err != nil || c.Name() != path[len(path)-1] {
			t.Errorf("command %v not found (err %v)", path, err)
		}
	}
}

func TestWantsModel(t *testing.T) {
	tests := []struct {
		scores, flag, enabled bool
		want                  bool
	}{
		{false, false, false, false},
		{false, false, true, false},
		{false, true, true, false},
		{true, false, false, false},
		{true, true, false, true},
		{true, false, true, true},
	}
	for _, tt := range tests {
		if got := wantsModel(tt.scores, tt.flag, tt.enabled); got != tt.want {
			t.Errorf("wantsModel(%v, %v, %v) = %v, want %v", tt.scores, tt.flag, tt.enabled, got, tt.want)
		}
	}
}

// With assess.enabled on and no API key anywhere, only scoring commands
// need a provider; the rest still open.
func TestOpenApp_AssessEnabledWithoutKey(t *testing.T) {
	for _, env := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(env, "")
	}
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("assess:\n  enabled: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	command := func(db string) *cobra.Command {
		c := &cobra.Command{Use: "test"}
		c.Flags().String("config", cfgPath, "")
		c.Flags().String("db", filepath.Join(dir, db), "")
		c.Flags().String("log", "quiet", "")
		c.SetContext(context.Background())
		return c
	}

	a, err := openApp(command("plain.db"), false)
	if err != nil {
		t.Fatalf("openApp(non-scoring) error = %v", err)
	}
	a.Close()

	if _, err := openApp(command("scoring.db"), true); err == nil {
		t.Error("openApp(scoring) error = nil, want missing provider error")
	}
}
