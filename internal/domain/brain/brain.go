// Package brain maintains per-(user, scope) knowledge summaries refreshed by
// LLM summarization after conversations.
package brain

import (
	"context"
	"time"
)

// Type tags a brain as user-wide or class-scoped. It must agree with the
// presence of the class reference: global iff no class id.
type Type string

const (
	TypeGlobal Type = "global"
	TypeClass  Type = "class"
)

// TypeForScope derives the type tag from an optional class reference.
func TypeForScope(classID *string) Type {
	if classID == nil {
		return TypeGlobal
	}
	return TypeClass
}

// ScopeName names a scope for logs and API payloads.
func ScopeName(classID *string) string {
	if classID == nil {
		return "global"
	}
	return *classID
}

// Brain is a persisted markdown summary of durable knowledge for one
// (user, scope) pair. At most one brain exists per (user, scope, type).
type Brain struct {
	ID       uint
	PublicID string
	UserID   string
	ClassID  *string
	Type     Type

	Content     string
	UpdateCount int

	LastUpdatedByConversationID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository persists brains. FindByScope returns a not-found platform error
// when no brain exists; Create returns a conflict platform error when the
// uniqueness triple is violated, letting callers resolve creation races.
type Repository interface {
	FindByScope(ctx context.Context, userID string, classID *string) (*Brain, error)
	Create(ctx context.Context, b *Brain) error
	Update(ctx context.Context, b *Brain) error
	ListByUser(ctx context.Context, userID string) ([]*Brain, error)
}
