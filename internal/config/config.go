// Package config loads readlevel settings from defaults, an optional config
// file, a .env file and READLEVEL_ environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/readlevel/internal/assess"
	"github.com/abhisek/readlevel/internal/batch"
	"github.com/abhisek/readlevel/internal/level"
	"github.com/abhisek/readlevel/internal/llm"
	"github.com/abhisek/readlevel/internal/srs"
)

// EnvPrefix prefixes every environment override, e.g. READLEVEL_DB_DRIVER.
const EnvPrefix = "READLEVEL"

// Config is the full application configuration.
type Config struct {
	DB        DBConfig        `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Level     level.Config    `mapstructure:"level"`
	Batch     batch.Config    `mapstructure:"batch"`
	Assess    assess.Config   `mapstructure:"assess"`
	LLM       llm.Config      `mapstructure:"llm"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required_if=Driver postgres"` // empty sqlite DSN → default path
}

type LogConfig struct {
	Mode string `mapstructure:"mode" validate:"oneof=dev prod quiet"`
}

// SchedulerConfig is the file and env form of srs.Config. Steps are
// duration strings such as "1m" or "1h30m".
type SchedulerConfig struct {
	DesiredRetention float64   `mapstructure:"desired_retention" validate:"gt=0,lt=1"`
	LearningSteps    []string  `mapstructure:"learning_steps" validate:"dive,required"`
	RelearningSteps  []string  `mapstructure:"relearning_steps" validate:"dive,required"`
	MaximumInterval  int       `mapstructure:"maximum_interval" validate:"gte=1,lte=36500"`
	Weights          []float64 `mapstructure:"weights" validate:"omitempty,len=19"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:  DBConfig{Driver: "sqlite"},
		Log: LogConfig{Mode: "dev"},
		Scheduler: SchedulerConfig{
			DesiredRetention: srs.DefaultDesiredRetention,
			LearningSteps:    durationStrings(srs.DefaultLearningSteps),
			RelearningSteps:  durationStrings(srs.DefaultRelearningSteps),
			MaximumInterval:  srs.DefaultMaximumInterval,
		},
		Batch:  batch.DefaultConfig(),
		Assess: assess.DefaultConfig(),
		LLM:    llm.DefaultConfig(),
	}
}

// Load reads configuration. configPath may be empty; dotenvPath defaults to
// ".env" in the working directory and is skipped when missing. Variables
// already set in the environment win over .env entries.
func Load(configPath, dotenvPath string) (*Config, error) {
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
	}

	v := viper.New()
	setDefaults(v, Default())

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// The llm package has its own variable names (READLEVEL_OPENAI_API_KEY, ...).
	cfg.LLM.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and that the scheduler settings build
// a valid srs.Config.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Scheduler.SRS(); err != nil {
		return fmt.Errorf("invalid config: scheduler: %w", err)
	}
	return nil
}

// SRS converts the scheduler section to an srs.Config. An empty step list
// disables those steps.
func (s SchedulerConfig) SRS() (srs.Config, error) {
	learning, err := parseDurations(s.LearningSteps)
	if err != nil {
		return srs.Config{}, fmt.Errorf("learning_steps: %w", err)
	}
	relearning, err := parseDurations(s.RelearningSteps)
	if err != nil {
		return srs.Config{}, fmt.Errorf("relearning_steps: %w", err)
	}

	cfg := srs.Config{
		DesiredRetention: s.DesiredRetention,
		LearningSteps:    learning,
		RelearningSteps:  relearning,
		MaximumInterval:  s.MaximumInterval,
	}
	if len(s.Weights) > 0 {
		if len(s.Weights) != len(cfg.Parameters) {
			return srs.Config{}, fmt.Errorf("weights: want %d values, got %d", len(cfg.Parameters), len(s.Weights))
		}
		copy(cfg.Parameters[:], s.Weights)
	}
	if _, err := srs.NewScheduler(cfg); err != nil {
		return srs.Config{}, err
	}
	return cfg, nil
}

func parseDurations(in []string) ([]time.Duration, error) {
	out := make([]time.Duration, 0, len(in))
	for _, s := range in {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, fmt.Errorf("step %q must be positive", s)
		}
		out = append(out, d)
	}
	return out, nil
}

func durationStrings(ds []time.Duration) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

// setDefaults registers every key so AutomaticEnv can override it; viper
// only consults the environment for keys it already knows.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("db.driver", d.DB.Driver)
	v.SetDefault("db.dsn", d.DB.DSN)
	v.SetDefault("log.mode", d.Log.Mode)

	v.SetDefault("scheduler.desired_retention", d.Scheduler.DesiredRetention)
	v.SetDefault("scheduler.learning_steps", d.Scheduler.LearningSteps)
	v.SetDefault("scheduler.relearning_steps", d.Scheduler.RelearningSteps)
	v.SetDefault("scheduler.maximum_interval", d.Scheduler.MaximumInterval)
	v.SetDefault("scheduler.weights", d.Scheduler.Weights)

	v.SetDefault("level.clamp_deltas", d.Level.ClampDeltas)

	v.SetDefault("batch.interval", d.Batch.Interval)
	v.SetDefault("batch.concurrency", d.Batch.Concurrency)
	v.SetDefault("batch.limit", d.Batch.Limit)

	v.SetDefault("assess.enabled", d.Assess.Enabled)
	v.SetDefault("assess.weight", d.Assess.Weight)
	v.SetDefault("assess.max_tokens", d.Assess.MaxTokens)
	v.SetDefault("assess.temperature", d.Assess.Temperature)
	v.SetDefault("assess.max_chars", d.Assess.MaxChars)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.anthropic.model", d.LLM.Anthropic.Model)
	v.SetDefault("llm.openai.model", d.LLM.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", d.LLM.OpenAI.BaseURL)
	v.SetDefault("llm.gemini.model", d.LLM.Gemini.Model)
	v.SetDefault("llm.openrouter.model", d.LLM.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", d.LLM.OpenRouter.BaseURL)
	v.SetDefault("llm.retry.max_attempts", d.LLM.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", d.LLM.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", d.LLM.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", d.LLM.Retry.Multiplier)
}

// DefaultPath returns $XDG_CONFIG_HOME/readlevel/config.yaml (or the
// ~/.config equivalent) if that file exists, and "" otherwise.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "readlevel", "config.yaml")
	if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
		return p
	}
	return ""
}
