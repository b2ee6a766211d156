package models

// Chat roles understood by the generation providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is a single message in a conversation. History is caller-supplied
// per request and never persisted server-side.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
