package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/llm"
	"github.com/joseph-ayodele/scavenger/internal/llm/gemini"
	"github.com/joseph-ayodele/scavenger/internal/llm/openai"
)

// ProviderFromConfig builds the configured provider. It is called once at
// startup; a missing API key comes back as a missing-config error.
func ProviderFromConfig(cfg common.LLMConfig, logger *slog.Logger) (llm.Provider, error) {
	if cfg.Provider == "" {
		cfg.Provider = common.ProviderOpenAI
	}
	if err := cfg.ValidateProvider(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case common.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
		}, logger)
	case common.ProviderGemini:
		return gemini.NewClient(gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			Timeout: cfg.Timeout,
		}, logger)
	default:
		return nil, common.NewAppError(common.CodeInvalidConfig, fmt.Sprintf("unknown EXTRACTION_PROVIDER %q", cfg.Provider), common.ErrInvalidInput)
	}
}

// Unavailable stands in for a provider that could not be configured so the
// rest of the app still serves; every extraction returns err.
func Unavailable(name string, err error) llm.Provider {
	return unavailable{name: name, err: err}
}

type unavailable struct {
	name string
	err  error
}

func (u unavailable) ExtractText(context.Context, llm.ExtractRequest) (string, error) {
	return "", u.err
}

func (u unavailable) Name() string  { return u.name }
func (u unavailable) Model() string { return "" }
