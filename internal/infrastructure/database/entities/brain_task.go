package entities

import (
	"time"

	"github.com/lib/pq"
)

// BrainUpdateTask represents the durable queue of scheduled brain updates.
type BrainUpdateTask struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID             string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID               string         `gorm:"type:varchar(64);not null"`
	ConversationPublicID string         `gorm:"type:varchar(50);not null"`
	ClassIDs             pq.StringArray `gorm:"type:text[]"`

	Status string  `gorm:"type:varchar(20);index:idx_brain_task_status;not null;default:'queued'"`
	Error  *string `gorm:"type:text"`

	QueuedAt    time.Time `gorm:"not null"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
}

// TableName specifies the table name for BrainUpdateTask.
func (BrainUpdateTask) TableName() string {
	return "brain_update_tasks"
}
