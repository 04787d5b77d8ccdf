package llm

import (
	"context"
	"fmt"

	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/config"
)

// New builds the configured provider. An empty API key yields a nil client;
// classification then runs on rules alone. The returned cleanup function is
// always safe to call.
func New(ctx context.Context, cfg config.LLMConfig) (ports.LLMClient, func(), error) {
	if cfg.APIKey == "" {
		return nil, func() {}, nil
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL), func() {}, nil
	case "gemini":
		g, err := NewGemini(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
