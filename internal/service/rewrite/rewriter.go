// Package rewrite turns context-dependent follow-up queries into
// self-contained ones so that retrieval and generation see what the
// user actually means.
package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexyujiuqiao/IM/internal/core"
	"github.com/alexyujiuqiao/IM/pkg/log"
)

// historyWindow bounds how many recent turns inform the rewrite.
const historyWindow = 4

const rewriteSystemPrompt = `You rewrite follow-up questions so they stand alone. Given the recent conversation and the user's latest message, restate the message as a complete, self-contained question that resolves pronouns and references. Preserve the meaning and key terms; never introduce facts that are not in the conversation. Respond with the rewritten question only. If the message already stands alone, repeat it unchanged.`

type Rewriter struct {
	gen core.Generator
}

func New(gen core.Generator) *Rewriter {
	return &Rewriter{gen: gen}
}

// Rewrite resolves references in query against the conversation history.
// With no history the query is returned verbatim without a model call.
// Any failure degrades to the original query.
func (r *Rewriter) Rewrite(ctx context.Context, query string, history []core.Turn) string {
	if len(history) == 0 || strings.TrimSpace(query) == "" {
		return query
	}

	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}

	var b strings.Builder
	b.WriteString("Conversation:\n")
	for _, t := range history[start:] {
		if t.Content == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	b.WriteString("\nLatest message: ")
	b.WriteString(query)

	reply, err := r.gen.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: rewriteSystemPrompt},
		{Role: core.RoleUser, Content: b.String()},
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("query rewrite failed, using original")
		return query
	}

	rewritten := strings.TrimSpace(reply.Content)
	if rewritten == "" {
		return query
	}
	return rewritten
}
