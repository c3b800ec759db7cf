package llm

import (
	"context"
	"fmt"

	"github.com/alexyujiuqiao/IM/internal/config"
	"github.com/alexyujiuqiao/IM/internal/core"
	"github.com/alexyujiuqiao/IM/pkg/log"
)

// NewProvider creates the appropriate Generator based on configuration.
func NewProvider(ctx context.Context, cfg *config.AppConfig) (core.Generator, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.LLMProvider).
		Msg("starting llm provider")

	switch cfg.LLMProvider {
	case "openai":
		c := config.NewOpenAIConfig(ctx)
		return NewOpenAI(c.APIKey, c.Model), nil
	case "custom":
		c := config.NewCustomLLMConfig(ctx)
		return NewCustomOpenAI(c.BaseURL, c.APIKey, c.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}
