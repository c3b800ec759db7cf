package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexyujiuqiao/IM/internal/core"
)

const summarySystemPrompt = `You condense conversation history. Fold the new turns into the existing summary, keeping facts, decisions, and open threads. Respond with the updated summary as one concise paragraph of plain text, nothing else.`

// condense folds evicted turns into the prior rolling summary. The
// summary is monotone: turns leave the recent buffer at most once and
// are folded at most once.
func (s *Service) condense(ctx context.Context, prior string, evicted []core.Turn) (string, error) {
	body := formatTurns(evicted)
	if body == "" {
		return prior, nil
	}

	var b strings.Builder
	if prior != "" {
		b.WriteString("Existing summary:\n")
		b.WriteString(prior)
		b.WriteString("\n\n")
	}
	b.WriteString("New turns:\n")
	b.WriteString(body)

	reply, err := s.gen.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: summarySystemPrompt},
		{Role: core.RoleUser, Content: b.String()},
	})
	if err != nil {
		return "", fmt.Errorf("summary fold call failed: %w", err)
	}

	folded := strings.TrimSpace(reply.Content)
	if folded == "" {
		return "", fmt.Errorf("summary fold returned empty text")
	}
	return folded, nil
}
