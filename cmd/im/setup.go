package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/alexyujiuqiao/IM/internal/config"
	"github.com/alexyujiuqiao/IM/internal/providers/index"
	"github.com/alexyujiuqiao/IM/internal/providers/llm"
	"github.com/alexyujiuqiao/IM/internal/providers/speech"
	"github.com/alexyujiuqiao/IM/internal/service/chat"
	"github.com/alexyujiuqiao/IM/internal/service/memory"
	"github.com/alexyujiuqiao/IM/internal/storage/sqlite"
	"github.com/alexyujiuqiao/IM/internal/transport/cli"
	"github.com/alexyujiuqiao/IM/pkg/log"
	"github.com/alexyujiuqiao/IM/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	err := initEnv(ctx, config.GetRuntimePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))
	memoryRepo := sqlite.NewMemoryRepo(db)

	// 3. Language model provider
	generator, err := llm.NewProvider(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Speech provider (ASR + TTS)
	speechSvc := speech.NewService(config.NewSpeechConfig(ctx))

	// 5. Semantic index
	embedder := index.NewOpenAIEmbedder(config.NewIndexConfig(ctx))
	semIndex := index.NewChromemIndex(embedder)

	// 6. Memory service
	mem := memory.NewService(memoryRepo, generator, appCfg.RecentBufferSize)

	// 7. Chat pipeline
	pipeline := chat.NewPipeline(appCfg, generator, speechSvc, speechSvc, semIndex, mem)

	// 8. Transports
	if appCfg.EnableCLI {
		repl, err := cli.NewReadLine(pipeline, appCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize CLI transport")
		}
		services = append(services, repl)
	}

	return services
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
