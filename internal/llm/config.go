package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	Provider string `mapstructure:"provider"`

	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Retry      RetryConfig      `mapstructure:"retry"`

	// Timeout bounds a single request including retries.
	Timeout time.Duration `mapstructure:"timeout"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // for OpenAI-compatible APIs
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // default https://openrouter.ai/api/v1
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults. Assessment prompts
// are short, so the small models of each vendor are the defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// envBindings lists the READLEVEL_ variables ConfigFromEnv reads.
func (c *Config) envBindings() map[string]*string {
	return map[string]*string{
		"READLEVEL_LLM_PROVIDER":       &c.Provider,
		"READLEVEL_ANTHROPIC_API_KEY":  &c.Anthropic.APIKey,
		"READLEVEL_ANTHROPIC_MODEL":    &c.Anthropic.Model,
		"READLEVEL_OPENAI_API_KEY":     &c.OpenAI.APIKey,
		"READLEVEL_OPENAI_MODEL":       &c.OpenAI.Model,
		"READLEVEL_OPENAI_BASE_URL":    &c.OpenAI.BaseURL,
		"READLEVEL_GEMINI_API_KEY":     &c.Gemini.APIKey,
		"READLEVEL_GEMINI_MODEL":       &c.Gemini.Model,
		"READLEVEL_OPENROUTER_API_KEY": &c.OpenRouter.APIKey,
		"READLEVEL_OPENROUTER_MODEL":   &c.OpenRouter.Model,
	}
}

// ConfigFromEnv builds a Config from READLEVEL_ environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields whose READLEVEL_ variable is set.
func (c *Config) ApplyEnv() {
	for name, field := range c.envBindings() {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
}

// DiscoverConfig probes the vendors' standard API key variables in priority
// order (Gemini, OpenAI, Anthropic, OpenRouter) and returns a Config for the
// first one found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	probes := []struct {
		env      string
		provider string
		key      *string
	}{
		{"GEMINI_API_KEY", ProviderGemini, &cfg.Gemini.APIKey},
		{"OPENAI_API_KEY", ProviderOpenAI, &cfg.OpenAI.APIKey},
		{"ANTHROPIC_API_KEY", ProviderAnthropic, &cfg.Anthropic.APIKey},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, &cfg.OpenRouter.APIKey},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg.Provider = p.provider
			*p.key = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("an API key is required for the %s provider (set READLEVEL_%s_API_KEY)",
			c.Provider, strings.ToUpper(c.Provider))
	}
	return nil
}
