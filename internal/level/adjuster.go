package level

import (
	"math"
	"strconv"
)

// Rating-delta scale: 1 (much too hard) to 5 (much too easy), 3 is neutral.
const (
	MinArticleRating     = 1
	MaxArticleRating     = 5
	NeutralArticleRating = 3
)

// Accuracy thresholds for the quiz policy, highest first.
var accuracyLadder = []struct {
	min   float64
	delta int
}{
	{0.90, +1},
	{0.70, 0},
	{0.40, -1},
	{0, -2},
}

// UserLevel is a reader's proficiency. CEFRLevel is always CEFRLevelOf(RALevel).
type UserLevel struct {
	RALevel   int    `json:"ra_level"`
	CEFRLevel string `json:"cefr_level"`
	XP        int    `json:"xp"`
}

// NewUserLevel builds a UserLevel whose CEFR band is derived from ra.
func NewUserLevel(ra, xp int) UserLevel {
	return UserLevel{RALevel: ra, CEFRLevel: CEFRLevelOf(ra), XP: xp}
}

// Signal is one of RatingDelta, AccuracySignal or CumulativeXP.
type Signal interface {
	signal()
}

// RatingDelta moves the current level by (Rating - 3) after the reader rates
// an article's difficulty on a 1-5 scale.
type RatingDelta struct {
	CurrentRALevel int
	Rating         int
	XP             int
}

// AccuracySignal re-centers the reader on the level of the article whose
// quiz they just completed.
type AccuracySignal struct {
	ArticleRALevel    int
	PercentageCorrect float64 // [0, 1]
	XP                int
}

// CumulativeXP derives the level from total experience points.
type CumulativeXP struct {
	XP int
}

func (RatingDelta) signal()    {}
func (AccuracySignal) signal() {}
func (CumulativeXP) signal()   {}

// Config controls the adjustment policies.
type Config struct {
	// ClampDeltas bounds rating-delta and accuracy results to [0, 18].
	// When false the raw level is kept and only the CEFR band saturates.
	ClampDeltas bool `mapstructure:"clamp_deltas" json:"clamp_deltas"`
}

// Adjuster turns performance signals into a new UserLevel. The zero value
// is usable and keeps rating-delta results unclamped.
type Adjuster struct {
	cfg Config
}

// NewAdjuster returns an Adjuster using cfg.
func NewAdjuster(cfg Config) *Adjuster {
	return &Adjuster{cfg: cfg}
}

// Adjust applies sig and returns the resulting level.
func (a *Adjuster) Adjust(sig Signal) (UserLevel, error) {
	switch s := sig.(type) {
	case RatingDelta:
		return a.ratingDelta(s)
	case AccuracySignal:
		return a.accuracy(s)
	case CumulativeXP:
		return a.cumulativeXP(s)
	case nil:
		return UserLevel{}, &InvalidSignalError{Field: "signal", Value: "nil", Want: "RatingDelta, AccuracySignal or CumulativeXP"}
	default:
		return UserLevel{}, &InvalidSignalError{Field: "signal", Value: "unknown", Want: "RatingDelta, AccuracySignal or CumulativeXP"}
	}
}

func (a *Adjuster) ratingDelta(s RatingDelta) (UserLevel, error) {
	if s.Rating < MinArticleRating || s.Rating > MaxArticleRating {
		return UserLevel{}, &InvalidSignalError{Field: "rating", Value: strconv.Itoa(s.Rating), Want: "1-5"}
	}
	if err := checkXP(s.XP); err != nil {
		return UserLevel{}, err
	}
	ra := s.CurrentRALevel + (s.Rating - NeutralArticleRating)
	return NewUserLevel(a.bound(ra), s.XP), nil
}

func (a *Adjuster) accuracy(s AccuracySignal) (UserLevel, error) {
	p := s.PercentageCorrect
	if math.IsNaN(p) || p < 0 || p > 1 {
		return UserLevel{}, &InvalidSignalError{
			Field: "percentage correct",
			Value: strconv.FormatFloat(p, 'g', -1, 64),
			Want:  "[0, 1]",
		}
	}
	if s.ArticleRALevel < MinRALevel || s.ArticleRALevel > MaxRALevel {
		return UserLevel{}, &InvalidSignalError{Field: "article level", Value: strconv.Itoa(s.ArticleRALevel), Want: "0-18"}
	}
	if err := checkXP(s.XP); err != nil {
		return UserLevel{}, err
	}
	return NewUserLevel(a.bound(s.ArticleRALevel+AccuracyDelta(p)), s.XP), nil
}

func (a *Adjuster) cumulativeXP(s CumulativeXP) (UserLevel, error) {
	if err := checkXP(s.XP); err != nil {
		return UserLevel{}, err
	}
	b := XPTable.Lookup(float64(s.XP))
	return UserLevel{RALevel: b.RALevel, CEFRLevel: b.CEFR, XP: s.XP}, nil
}

func (a *Adjuster) bound(ra int) int {
	if a.cfg.ClampDeltas {
		return ClampRALevel(ra)
	}
	return ra
}

// AccuracyDelta returns the level change for a quiz score in [0, 1].
func AccuracyDelta(p float64) int {
	for _, step := range accuracyLadder {
		if p >= step.min {
			return step.delta
		}
	}
	return accuracyLadder[len(accuracyLadder)-1].delta
}

func checkXP(xp int) error {
	if xp < 0 {
		return &InvalidSignalError{Field: "xp", Value: strconv.Itoa(xp), Want: ">= 0"}
	}
	return nil
}
