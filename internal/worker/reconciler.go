package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pollwise/backend/internal/polls"
	"github.com/pollwise/backend/pkg/queue"
)

// Reconciler repairs polls left half-deleted: the votes were removed but the
// poll row itself survived a failed delete. Each job retries the row delete
// until it sticks or the job exhausts its retries into the DLQ.
type Reconciler struct {
	polls  *polls.Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewReconciler creates a poll reconciliation processor.
func NewReconciler(pollRepo *polls.Repository, q *queue.Queue, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{polls: pollRepo, queue: q, logger: logger}
}

// Process executes one poll reconciliation job.
func (r *Reconciler) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypePollReconcile {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.PollReconcilePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	err := r.polls.Delete(ctx, payload.PollID)
	if errors.Is(err, polls.ErrNotFound) {
		// Already reconciled, by a retry of the original request or a
		// concurrent job.
		r.logger.Info("poll already reconciled", zap.String("poll_id", payload.PollID.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete poll: %w", err)
	}

	r.logger.Info("orphaned poll reconciled",
		zap.String("poll_id", payload.PollID.String()),
		zap.Int64("votes_deleted", payload.DeletedVotes))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (r *Reconciler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconcile worker stopping")
			return
		default:
		}

		job, _, err := r.queue.Dequeue(ctx)
		if err != nil {
			r.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		r.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := r.Process(ctx, job); err != nil {
			r.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := r.queue.Retry(ctx, job); reErr != nil {
				r.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
