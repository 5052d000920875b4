package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"joblin/internal/queue"
)

// Handler executes a claimed job's payload. A non-nil error leaves the job
// uncompleted (but unlocked) so another worker may retry it later.
type Handler func(ctx context.Context, job *queue.Job) error

// WorkerOptions configures a Worker.
type WorkerOptions struct {
	Logger       *slog.Logger
	PollInterval time.Duration
	QueueOptions []queue.Option
}

// Worker claims jobs from a queue and runs them through a handler. Each
// worker owns a private queue handle opened against the shared database.
type Worker struct {
	queue        *queue.Queue
	handler      Handler
	logger       *slog.Logger
	id           string
	pollInterval time.Duration
}

// NewWorker opens a dedicated queue handle at path and returns a worker
// ready to run.
func NewWorker(path string, handler Handler, opts WorkerOptions) (*Worker, error) {
	if handler == nil {
		return nil, fmt.Errorf("worker requires a handler")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	id := uuid.NewString()
	queueOpts := append([]queue.Option{queue.WithLogger(logger)}, opts.QueueOptions...)
	q, err := queue.Open(path, queueOpts...)
	if err != nil {
		return nil, fmt.Errorf("open worker queue: %w", err)
	}

	return &Worker{
		queue:        q,
		handler:      handler,
		logger:       logger.With("worker", id),
		id:           id,
		pollInterval: pollInterval,
	}, nil
}

// ID returns the worker's identity used in log output.
func (w *Worker) ID() string {
	return w.id
}

// Close releases the worker's queue handle.
func (w *Worker) Close() error {
	return w.queue.Close()
}

// Run claims and processes jobs until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("worker stopped")
			return nil
		}

		claim, err := w.queue.LockNextJobDelay(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("claim next job", "error", err)
			if !sleep(ctx, w.pollInterval) {
				return nil
			}
			continue
		}
		if claim == nil {
			if !sleep(ctx, w.pollInterval) {
				w.logger.Info("worker stopped")
				return nil
			}
			continue
		}

		if err := w.process(ctx, claim); err != nil {
			w.logger.Error("process job", "job", claim.ID, "error", err)
		}
	}
}

// process waits out the claim's delay and runs the job. The lock is released
// on every exit path, including handler panics propagating up.
func (w *Worker) process(ctx context.Context, claim *queue.JobDelay) error {
	defer func() {
		// Shutdown must not leave the job stuck locked.
		cleanup := context.WithoutCancel(ctx)
		if _, err := w.queue.UnlockJob(cleanup, claim.ID); err != nil {
			w.logger.Error("unlock job", "job", claim.ID, "error", err)
		}
	}()

	// The wait happens outside any transaction or queue call; the core
	// never holds a lock across a sleep.
	if claim.Delay > 0 {
		if !sleep(ctx, time.Duration(claim.Delay*float64(time.Second))) {
			return nil
		}
	}

	// The claim-to-run gap is not transactional: the job may have been
	// completed, deleted, or expired since. Re-fetch by ID before running.
	job, err := w.queue.GetJobByID(ctx, claim.ID)
	if err != nil {
		return fmt.Errorf("refetch job: %w", err)
	}
	if job == nil || job.CompletedAt != nil {
		return nil
	}

	w.logger.Info("job started", "job", job.ID, "starts_at", job.StartsAt)
	if err := w.handler(ctx, job); err != nil {
		return fmt.Errorf("handler: %w", err)
	}

	if _, err := job.Complete(ctx); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	w.logger.Info("job completed", "job", job.ID)
	return nil
}

// sleep waits for the duration or until ctx is canceled. It reports whether
// the full duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
