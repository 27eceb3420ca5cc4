// Package conversation defines chat conversations and their messages.
package conversation

import (
	"fmt"
	"time"

	"helm-server/internal/domain/llm"
)

// Role identifies the author of a message. Only the two closed variants are
// valid; unknown values are rejected when read from storage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole converts a stored role string into a Role, rejecting unknown values.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown message role %q", raw)
	}
}

// String returns the storage representation of the role.
func (r Role) String() string {
	return string(r)
}

// Conversation is a user-owned chat thread plus the scope references that
// define what is "in context" for it.
type Conversation struct {
	ID       uint
	PublicID string
	UserID   string
	Title    *string

	ContextClassIDs      []string
	ContextAssignmentIDs []string
	ContextPDFIDs        []string
	ContextNoteIDs       []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is an immutable entry in a conversation, ordered by creation time.
type Message struct {
	ID             uint
	PublicID       string
	ConversationID uint
	Role           Role
	Content        string
	CreatedAt      time.Time
}

// History converts stored messages into the role/content list sent to the
// LLM provider, preserving order.
func History(messages []*Message) []llm.Message {
	history := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		history = append(history, llm.Message{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}
	return history
}
