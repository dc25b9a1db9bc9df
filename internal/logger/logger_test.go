package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "PRODUCTION", "quiet", ""} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q) error = %v", mode, err)
		}
		if l.SugaredLogger == nil {
			t.Fatalf("New(%q) returned nil sugared logger", mode)
		}
	}
}

func TestWith_AddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("card", "c1").Info("reviewed", "rating", "Good")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["card"] != "c1" || fields["rating"] != "Good" {
		t.Errorf("fields = %v", fields)
	}
	if entries[0].Message != "reviewed" {
		t.Errorf("message = %q, want reviewed", entries[0].Message)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("discarded", "k", "v")
	l.With("a", 1).Error("also discarded")
	l.Sync()
}
