package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexyujiuqiao/IM/internal/core"
)

// ModelName is the model identifier reported in results. The actual
// backing model is a deployment detail the caller does not select.
const ModelName = "im-chat"

// newChatResult shapes the reply as an OpenAI-style chat completion
// object. Token usage is the chars/4 estimate; exact counts would need
// accounting inside every provider for a purely informational field.
func newChatResult(reply core.Message, personaName, promptPayload string) core.ChatResult {
	return core.ChatResult{
		ID:      "chatcmpl-" + uuid.NewString()[:8],
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   ModelName,
		Persona: personaName,
		Choices: []core.Choice{
			{
				Index:        0,
				Message:      core.Message{Role: core.RoleAssistant, Content: reply.Content},
				FinishReason: "stop",
			},
		},
		Usage: usageEstimate(promptPayload, reply.Content),
	}
}

func usageEstimate(prompt, completion string) core.Usage {
	p := len(prompt) / 4
	c := len(completion) / 4
	return core.Usage{
		PromptTokens:     p,
		CompletionTokens: c,
		TotalTokens:      p + c,
	}
}
