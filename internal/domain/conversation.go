package domain

// Conversation roles produced by the relay itself. History entries supplied
// by the caller may carry other roles; they are forwarded to the provider
// unchanged.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AppendTurn returns a copy of history with a new turn appended. The input
// slice is never mutated; the caller owns its history.
func AppendTurn(history []ChatMessage, role, content string) []ChatMessage {
	out := make([]ChatMessage, 0, len(history)+1)
	out = append(out, history...)
	return append(out, ChatMessage{Role: role, Content: content})
}
