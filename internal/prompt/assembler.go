package prompt

import (
	"strings"

	"portfolio-chat/backend/internal/llm"
	"portfolio-chat/backend/internal/model"
)

// Assembler combines the persona system prompt, the retrieved context block
// and the conversation history into the ordered message list sent to the
// model. History is passed through in full; windowing or summarization is
// the caller's concern.
type Assembler struct {
	persona string
}

func NewAssembler(persona string) *Assembler {
	return &Assembler{persona: persona}
}

// Assemble produces exactly one system message followed by the converted
// history. Roles outside the model vocabulary are coerced to "user".
func (a *Assembler) Assemble(history []model.Message, contextBlock string) []llm.Message {
	var system strings.Builder
	system.WriteString(a.persona)
	system.WriteString("\n\nHere is the relevant context information:\n")
	system.WriteString(contextBlock)

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: model.RoleSystem, Content: system.String()})

	for _, msg := range history {
		role := msg.Role
		switch role {
		case model.RoleUser, model.RoleAssistant, model.RoleSystem:
		default:
			role = model.RoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}
	return messages
}
