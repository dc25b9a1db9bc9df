package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/readlevel/internal/logger"
)

// NewProvider creates a Provider from configuration, wrapped so that each
// attempt is recorded and transient failures are retried:
// caller → timeout → retry → logging → vendor.
func NewProvider(ctx context.Context, cfg Config, events EventRecorder, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, events, log)
	return WithTimeout(WithRetry(logged, cfg.Retry), cfg.Timeout), nil
}
