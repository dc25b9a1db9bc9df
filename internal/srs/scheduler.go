package srs

import (
	"strconv"
	"time"
)

const day = 24 * time.Hour

// Scheduler advances cards through the New → Learning → Review ⇄ Relearning
// state machine. It holds no mutable state and is safe for concurrent use.
type Scheduler struct {
	model            model
	desiredRetention float64
	learningSteps    []time.Duration
	relearningSteps  []time.Duration
	maximumInterval  int
}

// NewScheduler builds a Scheduler, filling zero-valued fields of cfg with
// defaults and rejecting invalid values.
func NewScheduler(cfg Config) (*Scheduler, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		model:            model{w: cfg.Parameters},
		desiredRetention: cfg.DesiredRetention,
		learningSteps:    append([]time.Duration(nil), cfg.LearningSteps...),
		relearningSteps:  append([]time.Duration(nil), cfg.RelearningSteps...),
		maximumInterval:  cfg.MaximumInterval,
	}, nil
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config {
	return Config{
		Parameters:       s.model.w,
		DesiredRetention: s.desiredRetention,
		LearningSteps:    append([]time.Duration(nil), s.learningSteps...),
		RelearningSteps:  append([]time.Duration(nil), s.relearningSteps...),
		MaximumInterval:  s.maximumInterval,
	}
}

// GraduationReviews is the number of consecutive Good ratings that take a
// New card to Review. With the default two learning steps it is 2.
func (s *Scheduler) GraduationReviews() int {
	return max(2, len(s.learningSteps))
}

// Schedule applies one review to card and returns the updated copy. The
// input card is not modified.
//
// Every rating, Again included, yields Due strictly after now because all
// steps and intervals are positive.
func (s *Scheduler) Schedule(card Card, rating Rating, now time.Time) (Card, error) {
	if !rating.IsValid() {
		return Card{}, &InvalidSignalError{Field: "rating", Value: strconv.Itoa(int(rating))}
	}
	if err := card.validate(now); err != nil {
		return Card{}, err
	}

	c := card.clone()
	prev := c.State

	var elapsed float64
	if c.LastReview != nil {
		elapsed = now.Sub(*c.LastReview).Hours() / 24.0
	}
	c.ElapsedDays = elapsed

	s.updateMemory(&c, prev, rating, elapsed)

	var interval time.Duration
	switch prev {
	case New:
		interval = s.firstReview(&c, rating)
	case Learning:
		interval = s.stepTransition(&c, rating, s.learningSteps)
	case Relearning:
		interval = s.stepTransition(&c, rating, s.relearningSteps)
	case Review:
		interval = s.reviewTransition(&c, rating)
	}

	if rating == Again {
		c.Lapses++
	} else {
		c.Reps++
	}

	c.ScheduledDays = interval.Hours() / 24.0
	c.Due = now.Add(interval)
	reviewed := now
	c.LastReview = &reviewed
	return c, nil
}

// Retrievability returns the probability of recalling card at now, or 0
// for a card that has never been reviewed.
func (s *Scheduler) Retrievability(card Card, now time.Time) float64 {
	if card.State == New || card.LastReview == nil || card.Stability <= 0 {
		return 0
	}
	elapsed := now.Sub(*card.LastReview).Hours() / 24.0
	if elapsed < 0 {
		elapsed = 0
	}
	return s.model.retrievability(elapsed, card.Stability)
}

// Preview returns the outcome of each possible rating without committing any.
func (s *Scheduler) Preview(card Card, now time.Time) (map[Rating]Card, error) {
	out := make(map[Rating]Card, len(Ratings))
	for _, r := range Ratings {
		c, err := s.Schedule(card, r, now)
		if err != nil {
			return nil, err
		}
		out[r] = c
	}
	return out, nil
}

func (s *Scheduler) updateMemory(c *Card, prev State, rating Rating, elapsedDays float64) {
	if prev == New {
		c.Stability = s.model.initStability(rating)
		c.Difficulty = s.model.initDifficulty(rating)
		return
	}

	if elapsedDays < 1 {
		c.Stability = s.model.shortTermStability(c.Stability, rating)
	} else {
		r := s.model.retrievability(elapsedDays, c.Stability)
		if rating == Again {
			c.Stability = s.model.forgetStability(c.Difficulty, c.Stability, r)
		} else {
			c.Stability = s.model.recallStability(c.Difficulty, c.Stability, r, rating)
		}
	}
	c.Difficulty = s.model.nextDifficulty(c.Difficulty, rating)
}

// firstReview moves a New card into Learning. The starting step depends on
// the rating: Again and Hard start over, Good skips the first step, Easy
// jumps to the last one.
func (s *Scheduler) firstReview(c *Card, rating Rating) time.Duration {
	c.State = Learning
	steps := s.learningSteps
	if len(steps) == 0 {
		c.Step = 0
		return s.reviewInterval(c.Stability)
	}

	switch rating {
	case Again:
		c.Step = 0
		return steps[0]
	case Hard:
		c.Step = 0
		return hardStep(steps, 0)
	case Good:
		c.Step = min(1, len(steps)-1)
	default:
		c.Step = len(steps) - 1
	}
	return steps[c.Step]
}

// stepTransition handles Learning and Relearning cards.
func (s *Scheduler) stepTransition(c *Card, rating Rating, steps []time.Duration) time.Duration {
	switch rating {
	case Again:
		c.Step = 0
		if len(steps) == 0 {
			return s.reviewInterval(c.Stability)
		}
		return steps[0]

	case Hard:
		if len(steps) == 0 {
			return s.reviewInterval(c.Stability)
		}
		c.Step = min(c.Step, len(steps)-1)
		return hardStep(steps, c.Step)

	case Good:
		next := c.Step + 1
		if next >= len(steps) {
			return s.graduate(c)
		}
		c.Step = next
		return steps[next]

	default:
		return s.graduate(c)
	}
}

func (s *Scheduler) reviewTransition(c *Card, rating Rating) time.Duration {
	if rating != Again {
		c.Step = 0
		return s.reviewInterval(c.Stability)
	}

	c.State = Relearning
	c.Step = 0
	if len(s.relearningSteps) == 0 {
		return s.reviewInterval(c.Stability)
	}
	return s.relearningSteps[0]
}

func (s *Scheduler) graduate(c *Card) time.Duration {
	c.State = Review
	c.Step = 0
	return s.reviewInterval(c.Stability)
}

func (s *Scheduler) reviewInterval(stability float64) time.Duration {
	return time.Duration(s.model.interval(stability, s.desiredRetention, s.maximumInterval)) * day
}

// hardStep is the delay for Hard on a learning step. On the first step it
// sits between the first and second step.
func hardStep(steps []time.Duration, step int) time.Duration {
	if step == 0 {
		if len(steps) == 1 {
			return steps[0] * 3 / 2
		}
		return (steps[0] + steps[1]) / 2
	}
	return steps[step]
}
