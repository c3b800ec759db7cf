package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alexyujiuqiao/IM/internal/core"
	"github.com/alexyujiuqiao/IM/pkg/log"
)

const classifySystemPrompt = `You classify which response style fits a user's message. Answer with exactly one label from the provided set and nothing else.`

// classifyPersona picks a persona for the message when the caller did
// not request one. Any failure falls back to the default persona.
func (p *Pipeline) classifyPersona(ctx context.Context, text string) core.Persona {
	fallback := core.PersonaByName(p.cfg.DefaultPersona)
	if strings.TrimSpace(text) == "" {
		return fallback
	}

	labels := make([]string, 0, len(core.Personas))
	for name := range core.Personas {
		labels = append(labels, name)
	}
	sort.Strings(labels)

	prompt := fmt.Sprintf("Labels: %s\n\nMessage: %s", strings.Join(labels, ", "), text)
	reply, err := p.gen.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: classifySystemPrompt},
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("persona classification failed, using default")
		return fallback
	}

	label := strings.ToLower(strings.TrimSpace(reply.Content))
	if persona, ok := core.Personas[label]; ok {
		return persona
	}
	return fallback
}
