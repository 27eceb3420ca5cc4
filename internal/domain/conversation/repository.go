package conversation

import "context"

// Repository persists conversations. Every lookup is scoped by the owning
// user id; cross-user access is impossible by construction.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByPublicID(ctx context.Context, userID, publicID string) (*Conversation, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Conversation, int64, error)
	Update(ctx context.Context, conv *Conversation) error
	// Touch bumps the conversation's update timestamp.
	Touch(ctx context.Context, id uint) error
	// Delete removes the conversation and cascades to its messages.
	Delete(ctx context.Context, userID, publicID string) error
}

// MessageRepository persists messages within a conversation.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	// ListByConversation returns messages in creation order.
	ListByConversation(ctx context.Context, conversationID uint) ([]*Message, error)
	CountByConversation(ctx context.Context, conversationID uint) (int64, error)
}
