package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/alexyujiuqiao/IM/pkg/log"
)

type IndexConfig struct {
	APIKey         string `env:"EMBEDDING_API_KEY" envDefault:"${OPENAI_API_KEY}" envExpand:"true"`
	BaseURL        string `env:"EMBEDDING_BASE_URL"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
}

func NewIndexConfig(ctx context.Context) *IndexConfig {
	c := &IndexConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Index config")
	}
	return c
}
