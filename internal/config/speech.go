package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/alexyujiuqiao/IM/pkg/log"
)

type SpeechConfig struct {
	APIKey   string `env:"SPEECH_API_KEY" envDefault:"${OPENAI_API_KEY}" envExpand:"true"`
	BaseURL  string `env:"SPEECH_BASE_URL"`
	ASRModel string `env:"ASR_MODEL" envDefault:"whisper-1"`
	TTSModel string `env:"TTS_MODEL" envDefault:"tts-1"`
}

func NewSpeechConfig(ctx context.Context) *SpeechConfig {
	c := &SpeechConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Speech config")
	}
	return c
}
