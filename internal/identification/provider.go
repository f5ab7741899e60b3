package identification

import (
	"errors"
	"fmt"

	"cdfinder/internal/config"
	"cdfinder/internal/services/anthropic"
	"cdfinder/internal/services/llm"
	"cdfinder/internal/services/openai"
)

// ErrNoCredential reports that no AI credential is configured.
var ErrNoCredential = errors.New("ai credential not configured")

// NewCompleter builds the completion provider named by cfg.AI.Provider.
func NewCompleter(cfg *config.Config) (llm.Completer, error) {
	if cfg == nil {
		return nil, errors.New("new completer: config required")
	}
	ai := cfg.AI
	if ai.APIKey == "" {
		return nil, ErrNoCredential
	}
	switch ai.Provider {
	case config.ProviderOpenRouter, "":
		return llm.NewClient(llm.Config{
			APIKey:         ai.APIKey,
			BaseURL:        ai.BaseURL,
			Model:          ai.Model,
			Referer:        ai.Referer,
			Title:          ai.Title,
			TimeoutSeconds: ai.TimeoutSeconds,
		}), nil
	case config.ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:  ai.APIKey,
			BaseURL: ai.BaseURL,
			Model:   ai.Model,
			Timeout: cfg.AITimeout(),
		}), nil
	case config.ProviderAnthropic:
		return anthropic.New(anthropic.Config{
			APIKey:  ai.APIKey,
			BaseURL: ai.BaseURL,
			Model:   ai.Model,
			Timeout: cfg.AITimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("new completer: unsupported provider %q", ai.Provider)
	}
}
