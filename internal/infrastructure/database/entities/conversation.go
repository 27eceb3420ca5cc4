package entities

import (
	"time"

	"github.com/lib/pq"

	"helm-server/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID   string  `gorm:"type:varchar(64);index:idx_conversation_user;not null"`
	Title    *string `gorm:"type:varchar(256)"`

	ContextClassIDs      pq.StringArray `gorm:"type:text[]"`
	ContextAssignmentIDs pq.StringArray `gorm:"type:text[]"`
	ContextPDFIDs        pq.StringArray `gorm:"type:text[]"`
	ContextNoteIDs       pq.StringArray `gorm:"type:text[]"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// Message represents the database schema for chat messages
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID       string `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint   `gorm:"index:idx_message_conversation;not null"`
	Role           string `gorm:"type:varchar(16);not null"`
	Content        string `gorm:"type:text;not null"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "chat_messages"
}

// EtoD converts database entity to domain model
func (c *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:                   c.ID,
		PublicID:             c.PublicID,
		UserID:               c.UserID,
		Title:                c.Title,
		ContextClassIDs:      []string(c.ContextClassIDs),
		ContextAssignmentIDs: []string(c.ContextAssignmentIDs),
		ContextPDFIDs:        []string(c.ContextPDFIDs),
		ContextNoteIDs:       []string(c.ContextNoteIDs),
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// NewSchemaConversation creates a database entity from domain model
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:                   c.ID,
		PublicID:             c.PublicID,
		UserID:               c.UserID,
		Title:                c.Title,
		ContextClassIDs:      pq.StringArray(c.ContextClassIDs),
		ContextAssignmentIDs: pq.StringArray(c.ContextAssignmentIDs),
		ContextPDFIDs:        pq.StringArray(c.ContextPDFIDs),
		ContextNoteIDs:       pq.StringArray(c.ContextNoteIDs),
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// EtoD converts the entity to the domain model, rejecting unknown roles.
func (m *Message) EtoD() (*conversation.Message, error) {
	role, err := conversation.ParseRole(m.Role)
	if err != nil {
		return nil, err
	}
	return &conversation.Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Role:           role,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}, nil
}

// NewSchemaMessage creates a database entity from domain model
func NewSchemaMessage(m *conversation.Message) *Message {
	return &Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Role:           m.Role.String(),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}
