package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"helm-server/internal/domain/chat"
	"helm-server/internal/domain/status"
	"helm-server/internal/infrastructure/database/entities"
	"helm-server/internal/utils/idgen"
)

// PostgresQueue implements TaskQueue on the brain_update_tasks table.
type PostgresQueue struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewPostgresQueue creates a new PostgreSQL-backed task queue.
func NewPostgresQueue(db *gorm.DB, log zerolog.Logger) *PostgresQueue {
	return &PostgresQueue{
		db:  db,
		log: log.With().Str("component", "postgres-queue").Logger(),
	}
}

// Enqueue inserts a new queued task.
func (q *PostgresQueue) Enqueue(ctx context.Context, task *Task) error {
	if task.PublicID == "" {
		publicID, err := idgen.GenerateSecureID("task", 24)
		if err != nil {
			return fmt.Errorf("generate task id: %w", err)
		}
		task.PublicID = publicID
	}
	if task.QueuedAt.IsZero() {
		task.QueuedAt = time.Now()
	}

	entity := &entities.BrainUpdateTask{
		PublicID:             task.PublicID,
		UserID:               task.UserID,
		ConversationPublicID: task.ConversationPublicID,
		ClassIDs:             task.ClassIDs,
		Status:               string(status.StatusQueued),
		QueuedAt:             task.QueuedAt,
	}

	if err := q.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}

	q.log.Debug().
		Str("task_id", task.PublicID).
		Str("conversation_id", task.ConversationPublicID).
		Msg("brain update task enqueued")
	return nil
}

// Schedule queues a brain update job. It adapts the chat-layer scheduling
// contract onto the durable queue.
func (q *PostgresQueue) Schedule(ctx context.Context, job chat.BrainUpdateJob) error {
	return q.Enqueue(ctx, &Task{
		UserID:               job.UserID,
		ConversationPublicID: job.ConversationPublicID,
		ClassIDs:             job.ClassIDs,
	})
}

// Dequeue claims the next queued task. The row is selected with FOR UPDATE
// SKIP LOCKED and moved to in_progress inside the same transaction, so a
// task can never be claimed twice: the lock holds until the status change
// commits, and the guarded update refuses rows another worker already took.
func (q *PostgresQueue) Dequeue(ctx context.Context) (*Task, error) {
	var entity entities.BrainUpdateTask

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Raw("SELECT * FROM brain_update_tasks WHERE status = ? ORDER BY queued_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED", string(status.StatusQueued)).
			Scan(&entity).Error; err != nil {
			return err
		}

		// No rows returned leaves the zero entity.
		if entity.ID == 0 {
			return nil
		}

		next, err := status.Status(entity.Status).TransitionTo(status.StatusInProgress)
		if err != nil {
			return err
		}

		now := time.Now()
		result := tx.Model(&entities.BrainUpdateTask{}).
			Where("id = ? AND status = ?", entity.ID, entity.Status).
			Updates(map[string]interface{}{
				"status":     string(next),
				"started_at": now,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			entity = entities.BrainUpdateTask{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dequeue task: %w", err)
	}

	if entity.ID == 0 {
		return nil, nil // No tasks available
	}

	return &Task{
		PublicID:             entity.PublicID,
		UserID:               entity.UserID,
		ConversationPublicID: entity.ConversationPublicID,
		ClassIDs:             entity.ClassIDs,
		QueuedAt:             entity.QueuedAt,
	}, nil
}

// MarkCompleted updates the task status to completed. Only statuses the
// lifecycle allows to complete are touched.
func (q *PostgresQueue) MarkCompleted(ctx context.Context, publicID string) error {
	now := time.Now()
	result := q.db.WithContext(ctx).
		Model(&entities.BrainUpdateTask{}).
		Where("public_id = ? AND status IN ?", publicID, transitionSources(status.StatusCompleted)).
		Updates(map[string]interface{}{
			"status":       string(status.StatusCompleted),
			"completed_at": now,
			"updated_at":   now,
		})

	if result.Error != nil {
		return fmt.Errorf("mark completed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task %s is not in a completable state", publicID)
	}

	return nil
}

// MarkFailed updates the task status to failed. Only statuses the lifecycle
// allows to fail are touched.
func (q *PostgresQueue) MarkFailed(ctx context.Context, publicID string, taskErr error) error {
	now := time.Now()
	message := taskErr.Error()

	result := q.db.WithContext(ctx).
		Model(&entities.BrainUpdateTask{}).
		Where("public_id = ? AND status IN ?", publicID, transitionSources(status.StatusFailed)).
		Updates(map[string]interface{}{
			"status":     string(status.StatusFailed),
			"error":      message,
			"failed_at":  now,
			"updated_at": now,
		})

	if result.Error != nil {
		return fmt.Errorf("mark failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task %s is not in a failable state", publicID)
	}

	return nil
}

// transitionSources lists the statuses allowed to move to target under the
// lifecycle rules. Terminal rows are never rewritten.
func transitionSources(target status.Status) []string {
	all := []status.Status{status.StatusQueued, status.StatusInProgress, status.StatusCompleted, status.StatusFailed}
	var sources []string
	for _, s := range all {
		if s.CanTransitionTo(target) {
			sources = append(sources, string(s))
		}
	}
	return sources
}

// GetQueueDepth returns the number of queued tasks.
func (q *PostgresQueue) GetQueueDepth(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&entities.BrainUpdateTask{}).
		Where("status = ?", string(status.StatusQueued)).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("get queue depth: %w", err)
	}

	return count, nil
}

var (
	_ TaskQueue      = (*PostgresQueue)(nil)
	_ chat.Scheduler = (*PostgresQueue)(nil)
)
