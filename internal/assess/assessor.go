// Package assess asks a language model where a text sits on the CEFR scale
// and blends that estimate with the readability formulas.
package assess

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"text/template"

	"github.com/abhisek/readlevel/internal/level"
	"github.com/abhisek/readlevel/internal/llm"
	"github.com/abhisek/readlevel/internal/logger"
	"github.com/abhisek/readlevel/internal/readability"
)

// Purpose labels assessment calls in the LLM request log.
const Purpose = "cefr-assessment"

// Bands lists the CEFR bands in ascending order.
var Bands = [...]string{"A1", "A2", "B1", "B2", "C1", "C2"}

// bandCenters is the raLevel each CEFR band stands for when converting a
// distribution to an expected level.
var bandCenters = [...]float64{3, 6, 9, 12, 15, 18}

// Config holds assessment settings.
type Config struct {
	Enabled bool `mapstructure:"enabled"`

	// Weight is the share of the model estimate in the blended score;
	// 0 keeps pure readability and 1 trusts the model alone.
	Weight float64 `mapstructure:"weight" validate:"gte=0,lte=1"`

	MaxTokens   int     `mapstructure:"max_tokens" validate:"gte=0"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=1"`

	// MaxChars truncates long articles before they are sent.
	MaxChars int `mapstructure:"max_chars" validate:"gte=0"`
}

// DefaultConfig returns the assessment defaults.
func DefaultConfig() Config {
	return Config{
		Weight:    0.5,
		MaxTokens: 300,
		MaxChars:  6000,
	}
}

// Distribution is the model's probability for each CEFR band, in Bands order.
type Distribution [len(Bands)]float64

// Expected returns the probability-weighted raLevel. The probabilities are
// normalized first; ok is false when they sum to zero.
func (d Distribution) Expected() (ra float64, ok bool) {
	var total, sum float64
	for i, p := range d {
		if p < 0 || math.IsNaN(p) {
			continue
		}
		total += p
		sum += p * bandCenters[i]
	}
	if total == 0 {
		return 0, false
	}
	return sum / total, true
}

// Likeliest returns the band with the highest probability.
func (d Distribution) Likeliest() string {
	best := 0
	for i, p := range d {
		if p > d[best] {
			best = i
		}
	}
	return Bands[best]
}

// Result is a blended assessment.
type Result struct {
	readability.Result

	// Readability is the formula-only classification the blend started from.
	Readability readability.Result `json:"readability"`

	// Model is nil when the model was not consulted or failed.
	Model     *Distribution `json:"model,omitempty"`
	ModelRA   float64       `json:"model_ra,omitempty"`
	Reasoning string        `json:"reasoning,omitempty"`
}

// Assessor combines a Classifier with a model-backed CEFR estimate.
type Assessor struct {
	provider   llm.Provider
	classifier *readability.Classifier
	cfg        Config
	log        *logger.Logger
}

// New returns an Assessor. A nil provider makes Assess return the pure
// readability result.
func New(provider llm.Provider, classifier *readability.Classifier, cfg Config, log *logger.Logger) *Assessor {
	if classifier == nil {
		classifier = readability.NewClassifier()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Assessor{provider: provider, classifier: classifier, cfg: cfg, log: log}
}

type distributionOutput struct {
	A1        float64 `json:"a1"`
	A2        float64 `json:"a2"`
	B1        float64 `json:"b1"`
	B2        float64 `json:"b2"`
	C1        float64 `json:"c1"`
	C2        float64 `json:"c2"`
	Reasoning string  `json:"reasoning"`
}

// Distribution asks the model for the CEFR distribution of text.
func (a *Assessor) Distribution(ctx context.Context, text string) (Distribution, string, error) {
	if a.provider == nil {
		return Distribution{}, "", fmt.Errorf("no LLM provider configured")
	}
	ctx = llm.WithPurpose(ctx, Purpose)

	msg, err := buildMessage(truncate(text, a.cfg.MaxChars))
	if err != nil {
		return Distribution{}, "", fmt.Errorf("build assessment prompt: %w", err)
	}
	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserTurn(msg),
		Schema:      DistributionSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return Distribution{}, "", fmt.Errorf("LLM assessment failed: %w", err)
	}

	var out distributionOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return Distribution{}, "", fmt.Errorf("failed to parse assessment response: %w", err)
	}
	return Distribution{out.A1, out.A2, out.B1, out.B2, out.C1, out.C2}, out.Reasoning, nil
}

// Assess classifies text and, when a provider is available, blends in the
// model estimate:
//
//	raw = (1-Weight)·readability + Weight·expectedRA
//
// Any model failure is logged and the readability result is returned as is.
// Assess only fails when ctx is done.
func (a *Assessor) Assess(ctx context.Context, text string) (Result, error) {
	base := a.classifier.Classify(text)
	res := Result{Result: base, Readability: base}
	if a.provider == nil || base.Fallback || a.cfg.Weight == 0 {
		return res, nil
	}

	dist, reasoning, err := a.Distribution(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		a.log.Warn("model assessment unavailable, using readability only", "error", err)
		return res, nil
	}
	modelRA, ok := dist.Expected()
	if !ok {
		a.log.Warn("model returned an empty distribution, using readability only")
		return res, nil
	}

	w := math.Min(math.Max(a.cfg.Weight, 0), 1)
	blended := a.classifier.FromScore((1-w)*base.RawScore + w*modelRA)
	blended.Stats = base.Stats

	res.Result = blended
	res.Model = &dist
	res.ModelRA = modelRA
	res.Reasoning = reasoning
	a.log.Debug("assessed text",
		"readability_ra", base.RALevel,
		"model_ra", modelRA,
		"model_band", dist.Likeliest(),
		"blended_ra", blended.RALevel,
	)
	return res, nil
}

// truncate cuts text to at most n runes; n <= 0 means no limit.
func truncate(text string, n int) string {
	if n <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

const systemPrompt = `You are an experienced English language teacher who grades reading passages on the CEFR scale (A1, A2, B1, B2, C1, C2).

Instructions:
- Judge the passage as reading material for a learner, not the topic's difficulty for a native speaker.
- Consider vocabulary frequency, sentence length and structure, and how much background the text assumes.
- Return a probability for every band. The probabilities should sum to 1.
- Keep reasoning to one sentence.`

var userTemplate = template.Must(template.New("assess").Parse(`Grade the reading level of this passage.

Levels in use: {{range $i, $b := .Bands}}{{if $i}}, {{end}}{{$b}}{{end}}

Passage:
"""
{{.Text}}
"""`))

func buildMessage(text string) (string, error) {
	var buf bytes.Buffer
	err := userTemplate.Execute(&buf, struct {
		Bands []string
		Text  string
	}{Bands[:], text})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExpectedCEFR maps an expected raLevel to its CEFR label.
func ExpectedCEFR(ra float64) string {
	return level.CEFRLevelOf(int(math.Floor(ra)))
}
