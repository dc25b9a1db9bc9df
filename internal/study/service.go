// Package study ties the scheduling, leveling and classification cores to
// the store. Every operation loads records, runs a pure core function,
// writes the result back and appends an event, all in one transaction.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/readlevel/internal/assess"
	"github.com/abhisek/readlevel/internal/level"
	"github.com/abhisek/readlevel/internal/logger"
	"github.com/abhisek/readlevel/internal/srs"
	"github.com/abhisek/readlevel/internal/store"
)

var (
	// ErrInvalidKind is returned for a card kind other than vocabulary or sentence.
	ErrInvalidKind = errors.New("study: unknown card kind")

	// ErrUnclassified is returned when a quiz refers to an article with no level yet.
	ErrUnclassified = errors.New("study: article has not been classified")
)

// DefaultKeepSnapshots is how many progress snapshots are kept per reader.
const DefaultKeepSnapshots = 20

// maxAttempts bounds retries after an optimistic-concurrency conflict.
const maxAttempts = 3

// Scorer assigns a level to article text. *assess.Assessor implements it.
type Scorer interface {
	Assess(ctx context.Context, text string) (assess.Result, error)
}

// Options configures a Service. Zero fields fall back to defaults.
type Options struct {
	Scheduler     *srs.Scheduler
	Adjuster      *level.Adjuster
	Scorer        Scorer
	Logger        *logger.Logger
	Now           func() time.Time
	KeepSnapshots int
}

// Service is the application layer used by the CLI.
type Service struct {
	store  *store.Store
	sched  *srs.Scheduler
	adj    *level.Adjuster
	scorer Scorer
	log    *logger.Logger
	now    func() time.Time
	keep   int
}

// New creates a Service over st.
func New(st *store.Store, opts Options) (*Service, error) {
	s := &Service{
		store:  st,
		sched:  opts.Scheduler,
		adj:    opts.Adjuster,
		scorer: opts.Scorer,
		log:    opts.Logger,
		now:    opts.Now,
		keep:   opts.KeepSnapshots,
	}
	if s.sched == nil {
		sched, err := srs.NewScheduler(srs.Config{})
		if err != nil {
			return nil, fmt.Errorf("default scheduler: %w", err)
		}
		s.sched = sched
	}
	if s.adj == nil {
		s.adj = level.NewAdjuster(level.Config{})
	}
	if s.scorer == nil {
		s.scorer = assess.New(nil, nil, assess.DefaultConfig(), s.log)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	// Event timestamps feed Reschedule, so they must come from the same clock.
	st.SetClock(s.now)
	if s.keep <= 0 {
		s.keep = DefaultKeepSnapshots
	}
	return s, nil
}

// Scheduler returns the card scheduler in use.
func (s *Service) Scheduler() *srs.Scheduler {
	return s.sched
}

// inTx runs fn in a transaction, retrying from scratch when a versioned
// write lost a race.
func (s *Service) inTx(ctx context.Context, fn func(store.Repos) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.store.InTx(ctx, fn)
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
		s.log.Debug("retrying after write conflict", "attempt", attempt)
	}
	return err
}
