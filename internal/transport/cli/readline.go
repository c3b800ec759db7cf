package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/alexyujiuqiao/IM/internal/config"
	"github.com/alexyujiuqiao/IM/internal/core"
	"github.com/alexyujiuqiao/IM/internal/service/chat"
	"github.com/alexyujiuqiao/IM/pkg/log"
)

const defaultUserID = "cli-local"

// ReadLine is the interactive local transport. Each line is a user
// message; `/persona <name>` switches the response style, `/profile`,
// `/summary`, and `/clear` expose the memory management operations.
type ReadLine struct {
	cfg      *config.AppConfig
	pipeline *chat.Pipeline
	rl       *readline.Instance

	persona string
}

func NewReadLine(pipeline *chat.Pipeline, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:      cfg,
		pipeline: pipeline,
		rl:       rl,
		persona:  cfg.DefaultPersona,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("Chat started. Type 'exit' to quit, '/help' for commands.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			r.handleCommand(ctx, line)
			continue
		}

		result, err := r.pipeline.HandleMessage(ctx, defaultUserID,
			core.IncomingMessage{Text: line}, r.persona, "")
		if err != nil {
			logger.Error().Err(err).Str("code", core.ErrorCode(err)).Msg("message failed")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
			continue
		}

		for _, choice := range result.Choices {
			if choice.Message.Content != "" {
				fmt.Fprintf(r.rl.Stdout(), "%s\n", choice.Message.Content)
			}
		}
		if result.AudioRef != "" {
			fmt.Fprintf(r.rl.Stdout(), "[audio reply attached, %d chars]\n", len(result.AudioRef))
		}
	}
}

func (r *ReadLine) handleCommand(ctx context.Context, line string) {
	out := r.rl.Stdout()
	fields := strings.Fields(line)

	switch fields[0] {
	case "/help":
		fmt.Fprintln(out, "/persona <name>  switch response style")
		fmt.Fprintln(out, "/profile         show what is remembered about you")
		fmt.Fprintln(out, "/summary         show the rolling conversation summary")
		fmt.Fprintln(out, "/clear           forget everything about this session")

	case "/persona":
		if len(fields) < 2 {
			fmt.Fprintf(out, "current persona: %s\n", r.persona)
			return
		}
		name := strings.ToLower(fields[1])
		if _, ok := core.Personas[name]; !ok {
			fmt.Fprintf(out, "unknown persona %q\n", name)
			return
		}
		r.persona = name
		fmt.Fprintf(out, "persona set to %s\n", name)

	case "/profile":
		profile, err := r.pipeline.Memory().Profile(ctx, defaultUserID)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		if profile.IsEmpty() {
			fmt.Fprintln(out, "nothing learned yet")
			return
		}
		fmt.Fprintf(out, "name: %s\nprofession: %s\nhobbies: %s\ntraits: %s\ninteractions: %d\n",
			profile.Name, profile.Profession,
			strings.Join(profile.Hobbies, ", "), strings.Join(profile.Traits, ", "),
			profile.InteractionCount)

	case "/summary":
		summary, err := r.pipeline.Memory().Summary(ctx, defaultUserID)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		if summary == "" {
			fmt.Fprintln(out, "no summary yet")
			return
		}
		fmt.Fprintln(out, summary)

	case "/clear":
		if err := r.pipeline.Memory().Clear(ctx, defaultUserID); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(out, "memory cleared")

	default:
		fmt.Fprintf(out, "unknown command %s\n", fields[0])
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
