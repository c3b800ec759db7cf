package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/alexyujiuqiao/IM/internal/config"
)

// Service implements the Transcriber and Synthesizer collaborators on top
// of the OpenAI audio endpoints (or any compatible deployment).
type Service struct {
	client   *openai.Client
	asrModel string
	ttsModel string
}

func NewService(cfg *config.SpeechConfig) *Service {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Service{
		client:   openai.NewClientWithConfig(clientConfig),
		asrModel: cfg.ASRModel,
		ttsModel: cfg.TTSModel,
	}
}

func (s *Service) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model: s.asrModel,
		// Whisper requires a filename to sniff the container format.
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	return resp.Text, nil
}

func (s *Service) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty synthesis input")
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.ttsModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	return data, nil
}
