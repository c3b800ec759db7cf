package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/alexyujiuqiao/IM/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"IM_RUNTIME_PATH" envDefault:".im"`
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openai"`

	// Memory tiers
	RecentBufferSize int `env:"RECENT_BUFFER_SIZE" envDefault:"10"`

	// Prompt assembly
	PromptTokenBudget int `env:"PROMPT_TOKEN_BUDGET" envDefault:"3000"`

	// Multimodal input: ceiling on total decoded media bytes per message.
	MediaCeilingBytes int64 `env:"MEDIA_CEILING_BYTES" envDefault:"4194304"`

	// Per-branch timeout for the concurrent rewrite / memory / retrieval
	// stages. A branch that exceeds it degrades to its fallback value.
	BranchTimeout time.Duration `env:"BRANCH_TIMEOUT" envDefault:"10s"`

	// Retrieval
	RetrievalTopK int `env:"RETRIEVAL_TOP_K" envDefault:"5"`

	DefaultPersona string `env:"DEFAULT_PERSONA" envDefault:"upright"`

	EnableCLI bool `env:"ENABLE_CLI" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "im.db")
}
