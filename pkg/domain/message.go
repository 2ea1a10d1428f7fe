package domain

import "fmt"

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is only used for instructions sent to a completion service.
	// The engine never stores system messages in a transcript.
	RoleSystem Role = "system"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is a single transcript entry.
// It is a value type: once created it is never modified in place.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// UserMessage creates a message authored by the user.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates a message authored by the assistant.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SystemMessage creates an instruction message for a completion service.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func (m Message) String() string {
	return fmt.Sprintf("%s: %q", m.Role, m.Content)
}
