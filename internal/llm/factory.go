package llm

import (
	"context"
	"fmt"
	"os"

	"fitcoach/internal/config"
	"fitcoach/internal/logging"
)

// NewClientFromConfig builds the provider chain described by cfg: the
// primary provider first, then any configured fallbacks. Providers whose
// API keys are missing are skipped with a warning rather than failing the
// whole chain, as long as at least one provider remains usable.
func NewClientFromConfig(ctx context.Context, cfg *config.Config) (Client, error) {
	order := append([]string{cfg.LLM.Provider}, cfg.LLM.Fallbacks...)

	var names []string
	var clients []Client
	for _, provider := range order {
		c, err := newProviderClient(ctx, provider, cfg)
		if err != nil {
			logging.Get(logging.CategoryAPI).Warn("skipping provider %s: %v", provider, err)
			continue
		}
		names = append(names, provider)
		clients = append(clients, c)
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("no usable LLM provider; set an API key for one of: %v", order)
	}
	if len(clients) == 1 {
		return clients[0], nil
	}
	return NewFallbackClient(names, clients)
}

func newProviderClient(ctx context.Context, provider string, cfg *config.Config) (Client, error) {
	switch provider {
	case "gemini":
		key := cfg.LLM.APIKey
		if cfg.LLM.Provider != "gemini" || key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		gc := DefaultGeminiConfig(key)
		if cfg.LLM.Provider == "gemini" && cfg.LLM.Model != "" {
			gc.Model = cfg.LLM.Model
		}
		gc.Timeout = cfg.LLMTimeout()
		return NewGeminiClient(ctx, gc)
	case "openai":
		key := cfg.LLM.APIKey
		if cfg.LLM.Provider != "openai" || key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		oc := DefaultOpenAIConfig(key)
		if cfg.LLM.Provider == "openai" {
			if cfg.LLM.Model != "" {
				oc.Model = cfg.LLM.Model
			}
			oc.BaseURL = cfg.LLM.BaseURL
		}
		oc.Timeout = cfg.LLMTimeout()
		return NewOpenAIClient(oc)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
