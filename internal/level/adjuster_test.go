package level

import (
	"errors"
	"math"
	"testing"
)

func TestAdjust_AccuracyLadder(t *testing.T) {
	a := NewAdjuster(Config{})
	tests := []struct {
		pct  float64
		want int
	}{
		{1.0, 11},
		{0.9, 11},
		{0.89, 10},
		{0.75, 10},
		{0.7, 10},
		{0.5, 9},
		{0.4, 9},
		{0.39, 8},
		{0.2, 8},
		{0, 8},
	}
	for _, tt := range tests {
		got, err := a.Adjust(AccuracySignal{ArticleRALevel: 10, PercentageCorrect: tt.pct})
		if err != nil {
			t.Fatalf("Adjust(%v) error = %v", tt.pct, err)
		}
		if got.RALevel != tt.want {
			t.Errorf("Adjust(%v).RALevel = %d, want %d", tt.pct, got.RALevel, tt.want)
		}
		if got.CEFRLevel != CEFRLevelOf(tt.want) {
			t.Errorf("Adjust(%v).CEFRLevel = %q, want %q", tt.pct, got.CEFRLevel, CEFRLevelOf(tt.want))
		}
	}
}

func TestAdjust_AccuracyFromQuiz(t *testing.T) {
	answers := []bool{true, true, true, true, true, true, true, true, true, false}
	pct, err := QuizAccuracy(answers)
	if err != nil {
		t.Fatal(err)
	}
	got, err := NewAdjuster(Config{}).Adjust(AccuracySignal{ArticleRALevel: 10, PercentageCorrect: pct})
	if err != nil {
		t.Fatal(err)
	}
	if got.RALevel != 11 {
		t.Errorf("9/10 correct at level 10 = %d, want 11", got.RALevel)
	}
}

func TestAdjust_RatingDelta(t *testing.T) {
	a := NewAdjuster(Config{})
	tests := []struct {
		current, rating, want int
	}{
		{5, 5, 7},
		{5, 1, 3},
		{5, 3, 5},
		{5, 4, 6},
		{0, 1, -2},
		{18, 5, 20},
	}
	for _, tt := range tests {
		got, err := a.Adjust(RatingDelta{CurrentRALevel: tt.current, Rating: tt.rating, XP: 1200})
		if err != nil {
			t.Fatalf("Adjust(%d, %d) error = %v", tt.current, tt.rating, err)
		}
		if got.RALevel != tt.want {
			t.Errorf("Adjust(%d, %d).RALevel = %d, want %d", tt.current, tt.rating, got.RALevel, tt.want)
		}
		if got.CEFRLevel != CEFRLevelOf(tt.want) {
			t.Errorf("Adjust(%d, %d).CEFRLevel = %q", tt.current, tt.rating, got.CEFRLevel)
		}
		if got.XP != 1200 {
			t.Errorf("XP = %d, want 1200", got.XP)
		}
	}
}

func TestAdjust_ClampDeltas(t *testing.T) {
	a := NewAdjuster(Config{ClampDeltas: true})

	low, err := a.Adjust(RatingDelta{CurrentRALevel: 0, Rating: 1})
	if err != nil {
		t.Fatal(err)
	}
	if low.RALevel != 0 || low.CEFRLevel != "A0-" {
		t.Errorf("clamped low = %+v", low)
	}

	high, err := a.Adjust(AccuracySignal{ArticleRALevel: 18, PercentageCorrect: 1})
	if err != nil {
		t.Fatal(err)
	}
	if high.RALevel != 18 || high.CEFRLevel != "C2" {
		t.Errorf("clamped high = %+v", high)
	}
}

func TestAdjust_CumulativeXP(t *testing.T) {
	var a Adjuster
	got, err := a.Adjust(CumulativeXP{XP: 50000})
	if err != nil {
		t.Fatal(err)
	}
	want := UserLevel{RALevel: 6, CEFRLevel: "A2", XP: 50000}
	if got != want {
		t.Errorf("Adjust(50000 XP) = %+v, want %+v", got, want)
	}
}

func TestAdjust_InvalidSignals(t *testing.T) {
	a := NewAdjuster(Config{})
	tests := []struct {
		name  string
		sig   Signal
		field string
	}{
		{"rating zero", RatingDelta{CurrentRALevel: 5, Rating: 0}, "rating"},
		{"rating six", RatingDelta{CurrentRALevel: 5, Rating: 6}, "rating"},
		{"accuracy above one", AccuracySignal{ArticleRALevel: 5, PercentageCorrect: 1.01}, "percentage correct"},
		{"accuracy negative", AccuracySignal{ArticleRALevel: 5, PercentageCorrect: -0.1}, "percentage correct"},
		{"accuracy NaN", AccuracySignal{ArticleRALevel: 5, PercentageCorrect: math.NaN()}, "percentage correct"},
		{"article level", AccuracySignal{ArticleRALevel: 19, PercentageCorrect: 0.5}, "article level"},
		{"negative xp", CumulativeXP{XP: -1}, "xp"},
		{"nil", nil, "signal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Adjust(tt.sig)
			var sigErr *InvalidSignalError
			if !errors.As(err, &sigErr) {
				t.Fatalf("Adjust() error = %v, want InvalidSignalError", err)
			}
			if sigErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", sigErr.Field, tt.field)
			}
		})
	}
}
