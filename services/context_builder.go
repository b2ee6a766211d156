package services

import (
	"fmt"
	"strings"

	"github.com/devfolio/portfolio-rag/models"
)

// historyLimit caps how many caller-supplied history turns make it into the
// prompt; only the most recent turns are kept.
const historyLimit = 10

// ContextAssembler formats retrieved fragments into the prompt context and
// composes the final message list for the generation provider. It is
// stateless and safe for concurrent use.
type ContextAssembler struct{}

func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{}
}

// BuildContext joins fragments into one context string, one block per
// fragment with its 1-based index and two-decimal relevance score. Empty
// input yields the literal no-context sentinel.
func (a *ContextAssembler) BuildContext(fragments []models.RetrievedFragment) string {
	if len(fragments) == 0 {
		return NoContextSentinel
	}

	parts := make([]string, 0, len(fragments))
	for i, frag := range fragments {
		parts = append(parts, fmt.Sprintf("Context %d (relevance: %.2f):\n%s", i+1, frag.Score, frag.Text))
	}
	return strings.Join(parts, "\n\n")
}

// BuildMessages composes the message list sent to the model: the system turn
// with the context embedded, then at most the last historyLimit history turns
// verbatim in their original order, then the user turn.
func (a *ContextAssembler) BuildMessages(userMessage, context string, history []models.ChatTurn) []models.ChatTurn {
	messages := make([]models.ChatTurn, 0, len(history)+2)
	messages = append(messages, models.ChatTurn{
		Role:    models.RoleSystem,
		Content: BuildSystemPrompt(context),
	})

	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	messages = append(messages, history...)

	messages = append(messages, models.ChatTurn{
		Role:    models.RoleUser,
		Content: userMessage,
	})
	return messages
}
