package chat

import (
	"context"
	"strings"

	"github.com/alexyujiuqiao/IM/internal/core"
	"github.com/alexyujiuqiao/IM/pkg/log"
)

const keyInfoSystemPrompt = `You distill key information from a user's message for long-term recall. Respond with one short factual sentence capturing what is worth remembering, or the single word NONE when nothing is.`

// recordKeyInfo extracts a one-sentence fact from the user's message and
// writes it to the semantic index. Runs after the response is returned;
// failures are log-only.
func (p *Pipeline) recordKeyInfo(ctx context.Context, userID, text string) {
	logger := log.FromCtx(ctx)
	if strings.TrimSpace(text) == "" {
		return
	}

	reply, err := p.gen.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: keyInfoSystemPrompt},
		{Role: core.RoleUser, Content: text},
	})
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("key info extraction failed")
		return
	}

	fact := strings.TrimSpace(reply.Content)
	if fact == "" || strings.EqualFold(fact, "NONE") {
		return
	}

	if err := p.index.Upsert(ctx, userID, fact); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("key info indexing failed")
	}
}
