package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/devfolio/portfolio-rag/config"
)

// BuildProviders constructs the embedding and generation providers selected
// by LLM_PROVIDER. Each provider implements both contracts, so the same
// instance is returned twice.
func BuildProviders(ctx context.Context, cfg *config.Config, httpClient *http.Client) (EmbeddingProvider, GenerationProvider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		p, err := NewOpenAIProvider(cfg)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case config.ProviderGemini:
		p, err := NewGeminiProvider(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case config.ProviderOllama:
		p := NewOllamaProvider(cfg, httpClient)
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
