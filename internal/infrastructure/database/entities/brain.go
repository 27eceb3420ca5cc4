package entities

import (
	"time"

	"helm-server/internal/domain/brain"
)

// BrainMemory represents the database schema for brains. The class id is
// stored as an empty string for the global scope so the composite unique
// index holds (Postgres treats NULLs as distinct).
type BrainMemory struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID  string `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID    string `gorm:"type:varchar(64);uniqueIndex:idx_brain_user_scope;not null"`
	ClassID   string `gorm:"type:varchar(64);uniqueIndex:idx_brain_user_scope;not null;default:''"`
	BrainType string `gorm:"type:varchar(16);uniqueIndex:idx_brain_user_scope;not null"`

	Content     string `gorm:"type:text;not null;default:''"`
	UpdateCount int    `gorm:"not null;default:0"`

	LastUpdatedByConversationID *string `gorm:"type:varchar(50)"`
}

// TableName specifies the table name for BrainMemory.
func (BrainMemory) TableName() string {
	return "brain_memories"
}

// EtoD converts database entity to domain model
func (b *BrainMemory) EtoD() *brain.Brain {
	var classID *string
	if b.ClassID != "" {
		id := b.ClassID
		classID = &id
	}
	return &brain.Brain{
		ID:                          b.ID,
		PublicID:                    b.PublicID,
		UserID:                      b.UserID,
		ClassID:                     classID,
		Type:                        brain.Type(b.BrainType),
		Content:                     b.Content,
		UpdateCount:                 b.UpdateCount,
		LastUpdatedByConversationID: b.LastUpdatedByConversationID,
		CreatedAt:                   b.CreatedAt,
		UpdatedAt:                   b.UpdatedAt,
	}
}

// NewSchemaBrainMemory creates a database entity from domain model
func NewSchemaBrainMemory(b *brain.Brain) *BrainMemory {
	classID := ""
	if b.ClassID != nil {
		classID = *b.ClassID
	}
	return &BrainMemory{
		ID:                          b.ID,
		PublicID:                    b.PublicID,
		UserID:                      b.UserID,
		ClassID:                     classID,
		BrainType:                   string(b.Type),
		Content:                     b.Content,
		UpdateCount:                 b.UpdateCount,
		LastUpdatedByConversationID: b.LastUpdatedByConversationID,
		CreatedAt:                   b.CreatedAt,
		UpdatedAt:                   b.UpdatedAt,
	}
}
