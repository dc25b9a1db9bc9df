package srs

import (
	"fmt"
	"time"
)

// NumParameters is the number of model weights (FSRS-5 layout).
const NumParameters = 19

// Parameters are the model weights:
//
//	w[0..3]   initial stability per first rating
//	w[4..7]   difficulty: initial, slope, damping, mean reversion
//	w[8..10]  stability growth after a successful recall
//	w[11..14] stability after a lapse
//	w[15..16] hard penalty, easy bonus
//	w[17..18] same-day review
type Parameters [NumParameters]float64

// DefaultParameters are the FSRS-5 defaults shipped with ts-fsrs.
var DefaultParameters = Parameters{
	0.40255, 1.18385, 3.173, 15.69105,
	7.1949, 0.5345, 1.4604, 0.0046,
	1.54575, 0.1192, 1.01925,
	1.9395, 0.11, 0.29605, 2.2698,
	0.2315, 2.9898,
	0.51655, 0.6621,
}

// LowerBounds and UpperBounds bracket every weight. w[17] and w[18] must be
// strictly positive so a lapse always lowers stability.
var (
	LowerBounds = Parameters{
		0.001, 0.001, 0.001, 0.001,
		1.0, 0.001, 0.001, 0.001,
		0.0, 0.0, 0.001,
		0.001, 0.001, 0.001, 0.0,
		0.0, 1.0,
		0.01, 0.01,
	}
	UpperBounds = Parameters{
		100.0, 100.0, 100.0, 100.0,
		10.0, 4.0, 4.0, 0.75,
		4.5, 0.8, 3.5,
		5.0, 0.25, 0.9, 4.0,
		1.0, 6.0,
		2.0, 2.0,
	}
)

// Validate checks every weight against LowerBounds and UpperBounds.
func (p Parameters) Validate() error {
	for i := range p {
		if p[i] < LowerBounds[i] || p[i] > UpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %f, bounds [%f, %f]",
				ErrInvalidParameters, i, p[i], LowerBounds[i], UpperBounds[i])
		}
	}
	return nil
}

const (
	MinDifficulty = 1.0
	MaxDifficulty = 10.0

	// MinStability is the floor applied to computed stability. A lapse from
	// a card already at or below it still lowers stability.
	MinStability = 0.01

	DefaultDesiredRetention = 0.9
	DefaultMaximumInterval  = 36500

	// MaxMaximumInterval caps MaximumInterval at 100 years, well inside
	// what time.Duration can hold.
	MaxMaximumInterval = 36500
)

var (
	DefaultLearningSteps   = []time.Duration{time.Minute, 10 * time.Minute}
	DefaultRelearningSteps = []time.Duration{10 * time.Minute}
)

// Config configures a Scheduler. Zero values select the defaults.
type Config struct {
	Parameters       Parameters      `json:"parameters"`        // zero → DefaultParameters
	DesiredRetention float64         `json:"desired_retention"` // zero → 0.9
	LearningSteps    []time.Duration `json:"learning_steps"`    // nil → [1m, 10m]; empty → none
	RelearningSteps  []time.Duration `json:"relearning_steps"`  // nil → [10m]; empty → none
	MaximumInterval  int             `json:"maximum_interval"`  // days; zero → 36500
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Parameters:       DefaultParameters,
		DesiredRetention: DefaultDesiredRetention,
		LearningSteps:    append([]time.Duration(nil), DefaultLearningSteps...),
		RelearningSteps:  append([]time.Duration(nil), DefaultRelearningSteps...),
		MaximumInterval:  DefaultMaximumInterval,
	}
}

func (c Config) withDefaults() Config {
	if c.Parameters == (Parameters{}) {
		c.Parameters = DefaultParameters
	}
	if c.DesiredRetention == 0 {
		c.DesiredRetention = DefaultDesiredRetention
	}
	if c.LearningSteps == nil {
		c.LearningSteps = append([]time.Duration(nil), DefaultLearningSteps...)
	}
	if c.RelearningSteps == nil {
		c.RelearningSteps = append([]time.Duration(nil), DefaultRelearningSteps...)
	}
	if c.MaximumInterval == 0 {
		c.MaximumInterval = DefaultMaximumInterval
	}
	return c
}

func (c Config) validate() error {
	if err := c.Parameters.Validate(); err != nil {
		return err
	}
	if c.DesiredRetention <= 0 || c.DesiredRetention >= 1 {
		return fmt.Errorf("srs: desired retention %f out of range (0, 1)", c.DesiredRetention)
	}
	if c.MaximumInterval < 1 || c.MaximumInterval > MaxMaximumInterval {
		return fmt.Errorf("srs: maximum interval %d out of range [1, %d] days", c.MaximumInterval, MaxMaximumInterval)
	}
	for _, steps := range [][]time.Duration{c.LearningSteps, c.RelearningSteps} {
		for _, d := range steps {
			if d <= 0 {
				return fmt.Errorf("srs: step %s must be positive", d)
			}
		}
	}
	return nil
}
