package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"helm-server/internal/domain/chat"
	"helm-server/internal/infrastructure/metrics"
	"helm-server/internal/infrastructure/observability"
	"helm-server/internal/infrastructure/queue"
)

// BrainUpdateRunner executes a scheduled brain-update job.
type BrainUpdateRunner interface {
	RunBrainUpdate(ctx context.Context, job chat.BrainUpdateJob) error
}

// Worker processes brain-update tasks from the queue.
type Worker struct {
	id          int
	queue       queue.TaskQueue
	runner      BrainUpdateRunner
	taskTimeout time.Duration
	log         zerolog.Logger
	stopChan    chan struct{}
}

// NewWorker creates a new background worker.
func NewWorker(
	id int,
	taskQueue queue.TaskQueue,
	runner BrainUpdateRunner,
	taskTimeout time.Duration,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		id:          id,
		queue:       taskQueue,
		runner:      runner,
		taskTimeout: taskTimeout,
		log:         log.With().Int("worker_id", id).Str("component", "worker").Logger(),
		stopChan:    make(chan struct{}),
	}
}

// Start begins processing tasks from the queue.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	ticker := time.NewTicker(2 * time.Second) // Poll every 2 seconds
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			w.processNextTask(ctx)
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) processNextTask(ctx context.Context) {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to dequeue task")
		return
	}

	if task == nil {
		// No tasks available
		return
	}

	// Dequeue moved the task to in_progress; from here it must end up
	// completed or failed.
	w.log.Info().
		Str("task_id", task.PublicID).
		Str("user_id", task.UserID).
		Str("conversation_id", task.ConversationPublicID).
		Msg("processing brain update task")

	taskCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()

	taskCtx, span := observability.StartBrainUpdateSpan(taskCtx, task.ConversationPublicID, len(task.ClassIDs))
	defer span.End()

	job := chat.BrainUpdateJob{
		UserID:               task.UserID,
		ConversationPublicID: task.ConversationPublicID,
		ClassIDs:             task.ClassIDs,
	}

	if err := w.runner.RunBrainUpdate(taskCtx, job); err != nil {
		w.log.Error().Err(err).Str("task_id", task.PublicID).Msg("task execution failed")
		observability.RecordError(span, err)
		metrics.RecordBackgroundJob("brain_update", "failed")
		recordBrainOutcomes(task, "failed")
		if markErr := w.queue.MarkFailed(ctx, task.PublicID, err); markErr != nil {
			w.log.Error().Err(markErr).Str("task_id", task.PublicID).Msg("failed to mark task as failed")
		}
		return
	}

	if err := w.queue.MarkCompleted(ctx, task.PublicID); err != nil {
		w.log.Error().Err(err).Str("task_id", task.PublicID).Msg("failed to mark task as completed")
	}
	metrics.RecordBackgroundJob("brain_update", "completed")
	recordBrainOutcomes(task, "completed")

	w.log.Info().Str("task_id", task.PublicID).Msg("task completed successfully")
}

// recordBrainOutcomes counts one update per scope in the job: each class
// scope plus the global one.
func recordBrainOutcomes(task *queue.Task, status string) {
	for range task.ClassIDs {
		metrics.RecordBrainUpdate("class", status)
	}
	metrics.RecordBrainUpdate("global", status)
}
