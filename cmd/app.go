package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/readlevel/internal/assess"
	"github.com/abhisek/readlevel/internal/config"
	"github.com/abhisek/readlevel/internal/level"
	"github.com/abhisek/readlevel/internal/llm"
	"github.com/abhisek/readlevel/internal/logger"
	"github.com/abhisek/readlevel/internal/srs"
	"github.com/abhisek/readlevel/internal/store"
	"github.com/abhisek/readlevel/internal/study"
)

// app holds what a command needs once config, logging and the database
// are set up.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	store  *store.Store
	sched  *srs.Scheduler
	scorer *assess.Assessor
	svc    *study.Service
}

// openApp loads configuration and opens the database. Commands that score
// text pass scores; for them the LLM provider is attached when --assess is
// set or assess.enabled is on, otherwise articles are scored by readability
// alone. Other commands never build a provider.
func openApp(cmd *cobra.Command, scores bool) (*app, error) {
	ctx := cmd.Context()

	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath, "")
	if err != nil {
		return nil, err
	}
	if mode, _ := cmd.Flags().GetString("log"); mode != "" {
		cfg.Log.Mode = mode
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	dsn, err := resolveDSN(cmd, cfg)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.OpenDriver(cfg.DB.Driver, dsn)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{cfg: cfg, log: log, store: st}
	assessFlag, _ := cmd.Flags().GetBool("assess")
	if err := a.init(ctx, wantsModel(scores, assessFlag, cfg.Assess.Enabled)); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func wantsModel(scores, assessFlag, enabled bool) bool {
	return scores && (assessFlag || enabled)
}

func (a *app) init(ctx context.Context, withModel bool) error {
	srsCfg, err := a.cfg.Scheduler.SRS()
	if err != nil {
		return err
	}
	a.sched, err = srs.NewScheduler(srsCfg)
	if err != nil {
		return err
	}

	var provider llm.Provider
	if withModel {
		provider, err = a.provider(ctx)
		if err != nil {
			return err
		}
	}
	a.scorer = assess.New(provider, nil, a.cfg.Assess, a.log)

	a.svc, err = study.New(a.store, study.Options{
		Scheduler: a.sched,
		Adjuster:  level.NewAdjuster(a.cfg.Level),
		Scorer:    a.scorer,
		Logger:    a.log,
	})
	return err
}

// provider builds the configured LLM provider, falling back to whichever
// vendor key is present in the environment.
func (a *app) provider(ctx context.Context) (llm.Provider, error) {
	cfg := a.cfg.LLM
	if err := cfg.Validate(); err != nil {
		found, ok := llm.DiscoverConfig()
		if !ok {
			return nil, fmt.Errorf("model assessment needs an LLM provider: %w", err)
		}
		found.Retry, found.Timeout = cfg.Retry, cfg.Timeout
		cfg = found
	}
	a.log.Debug("using llm provider", "provider", cfg.Provider)
	return llm.NewProvider(ctx, cfg, a.store.Events(), a.log)
}

func (a *app) Close() {
	a.store.Close()
	a.log.Sync()
}

// resolveDSN returns the database location using the --db flag (highest
// priority), then the configured DSN, then READLEVEL_DB or the default
// XDG path.
func resolveDSN(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if cfg.DB.Driver == store.DriverPostgres {
			return p, nil
		}
		return p, store.EnsureDir(p)
	}
	if cfg.DB.DSN != "" {
		return cfg.DB.DSN, nil
	}
	return store.DefaultDBPath()
}
