package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/alexyujiuqiao/IM/pkg/log"
)

type OpenAIConfig struct {
	APIKey string `env:"OPENAI_API_KEY,required,notEmpty"`
	Model  string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
}

func NewOpenAIConfig(ctx context.Context) *OpenAIConfig {
	c := &OpenAIConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse OpenAI config")
	}
	return c
}

type CustomLLMConfig struct {
	BaseURL string `env:"CUSTOM_LLM_BASE_URL,required,notEmpty"`
	APIKey  string `env:"CUSTOM_LLM_API_KEY"`
	Model   string `env:"CUSTOM_LLM_MODEL,required,notEmpty"`
}

func NewCustomLLMConfig(ctx context.Context) *CustomLLMConfig {
	c := &CustomLLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse custom LLM config")
	}
	return c
}
