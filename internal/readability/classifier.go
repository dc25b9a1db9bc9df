package readability

import (
	"math"

	"github.com/abhisek/readlevel/internal/level"
)

// Result is the level assigned to a block of text.
type Result struct {
	RawScore  float64 `json:"raw_score"` // consensus grade, capped at the top band
	RALevel   int     `json:"ra_level"`
	CEFRLevel string  `json:"cefr_level"`
	Stats     Stats   `json:"stats"`

	// Fallback is set when the text had nothing to measure and the floor
	// band was returned instead.
	Fallback bool `json:"fallback,omitempty"`
}

// Classifier maps text to RA and CEFR levels through level.RATable, the
// same table the level adjuster reads.
type Classifier struct {
	table level.Table
	score func(Stats) float64
}

// NewClassifier returns a Classifier using the text-standard consensus.
func NewClassifier() *Classifier {
	return &Classifier{table: level.RATable, score: TextStandard}
}

// Classify scores text and maps the score to a level. Empty or
// non-textual input yields the floor band with Fallback set; it never fails.
func (c *Classifier) Classify(text string) Result {
	st := Analyze(text)
	if st.Empty() {
		r := c.fromScore(0)
		r.Stats = st
		r.Fallback = true
		return r
	}
	r := c.fromScore(c.score(st))
	r.Stats = st
	return r
}

// FromScore maps a raw readability score to its band. Scores below zero
// land in the first band and scores above 18 in the last.
func (c *Classifier) FromScore(raw float64) Result {
	return c.fromScore(raw)
}

func (c *Classifier) fromScore(raw float64) Result {
	if math.IsNaN(raw) {
		raw = 0
	}
	top := float64(level.MaxRALevel)
	b := c.table.Lookup(math.Min(math.Max(raw, 0), top))
	return Result{
		RawScore:  math.Min(raw, top),
		RALevel:   b.RALevel,
		CEFRLevel: b.CEFR,
	}
}

// Classify classifies text with a default Classifier.
func Classify(text string) Result {
	return NewClassifier().Classify(text)
}

// FromScore maps a raw score with a default Classifier.
func FromScore(raw float64) Result {
	return NewClassifier().FromScore(raw)
}
