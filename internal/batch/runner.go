// Package batch classifies stored articles without a reader in the loop:
// once, on an interval, or right after a spreadsheet import.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/readlevel/internal/assess"
	"github.com/abhisek/readlevel/internal/logger"
	"github.com/abhisek/readlevel/internal/store"
)

// Config controls batch runs.
type Config struct {
	Interval    time.Duration `mapstructure:"interval" validate:"gt=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1"`
	Limit       int           `mapstructure:"limit" validate:"gte=0"` // articles per run; 0 = all pending
}

func DefaultConfig() Config {
	return Config{Interval: 10 * time.Minute, Concurrency: 4}
}

// Scorer assigns a level to article text. *assess.Assessor implements it.
type Scorer interface {
	Assess(ctx context.Context, text string) (assess.Result, error)
}

// Report summarizes one run.
type Report struct {
	Pending    int
	Classified int
	Skipped    int // changed by someone else mid-run
	Failed     int
}

// Runner classifies unclassified articles.
type Runner struct {
	articles store.ArticleRepo
	scorer   Scorer
	cfg      Config
	log      *logger.Logger

	mu sync.Mutex // one run at a time
}

func NewRunner(articles store.ArticleRepo, scorer Scorer, cfg Config, log *logger.Logger) *Runner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{articles: articles, scorer: scorer, cfg: cfg, log: log}
}

// RunOnce classifies every pending article, up to Config.Limit, with at
// most Config.Concurrency in flight. Per-article failures are logged and
// counted; only listing failures and cancellation are returned.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.articles.List(ctx, store.ArticleFilter{Unclassified: true, Limit: r.cfg.Limit})
	if err != nil {
		return Report{}, fmt.Errorf("list pending articles: %w", err)
	}
	rep := Report{Pending: len(pending)}
	if len(pending) == 0 {
		return rep, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i := range pending {
		a := pending[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := r.classify(gctx, &a)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				rep.Classified++
			case errors.Is(err, store.ErrConflict):
				rep.Skipped++
				r.log.Debug("article changed during batch run", "article", a.ID)
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				rep.Failed++
				r.log.Warn("failed to classify article", "article", a.ID, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	r.log.Info("batch run finished",
		"pending", rep.Pending,
		"classified", rep.Classified,
		"skipped", rep.Skipped,
		"failed", rep.Failed,
	)
	return rep, nil
}

func (r *Runner) classify(ctx context.Context, a *store.Article) error {
	res, err := r.scorer.Assess(ctx, a.Content)
	if err != nil {
		return err
	}
	a.Classified = true
	a.RawScore = res.RawScore
	a.RALevel = res.RALevel
	a.CEFRLevel = res.CEFRLevel
	return r.articles.Update(ctx, a)
}

// Watch runs RunOnce immediately and then every interval until ctx is
// done. A failed run is logged and the next one still fires.
func (r *Runner) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = r.cfg.Interval
	}
	if interval <= 0 {
		return fmt.Errorf("watch interval must be positive")
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	_, err := s.Every(interval).Do(func() {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("batch run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule batch run: %w", err)
	}

	r.log.Info("watching for unclassified articles", "interval", interval.String())
	s.StartAsync()
	<-ctx.Done()
	s.Stop()
	return nil
}
