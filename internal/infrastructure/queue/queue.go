package queue

import (
	"context"
	"time"
)

// Task represents a scheduled brain update waiting to be processed.
type Task struct {
	PublicID             string
	UserID               string
	ConversationPublicID string
	ClassIDs             []string
	QueuedAt             time.Time
}

// TaskQueue defines the interface for task queue operations.
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(ctx context.Context, task *Task) error

	// Dequeue atomically claims the next queued task, moving it to
	// in_progress. Returns nil when the queue is empty. A claimed task is
	// never handed to a second caller.
	Dequeue(ctx context.Context) (*Task, error)

	// MarkCompleted updates task status to completed
	MarkCompleted(ctx context.Context, taskID string) error

	// MarkFailed updates task status to failed
	MarkFailed(ctx context.Context, taskID string, err error) error

	// GetQueueDepth returns the number of queued tasks
	GetQueueDepth(ctx context.Context) (int64, error)
}
