package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"joblin/internal/queue"
)

// JanitorOptions configures the prune schedules. Empty schedules disable
// the corresponding prune. Schedules use standard cron syntax plus
// descriptors such as @hourly and @every 10m.
type JanitorOptions struct {
	Logger                 *slog.Logger
	PruneCompletedSchedule string
	PruneExpiredSchedule   string
	QueueOptions           []queue.Option
}

// Janitor prunes completed and expired jobs on cron schedules. It owns a
// private queue handle; a mutex serializes the prunes since cron runs each
// entry in its own goroutine.
type Janitor struct {
	queue  *queue.Queue
	cron   *cron.Cron
	logger *slog.Logger
	mu     sync.Mutex
}

// NewJanitor opens a dedicated queue handle at path and registers the
// configured schedules.
func NewJanitor(path string, opts JanitorOptions) (*Janitor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	queueOpts := append([]queue.Option{queue.WithLogger(logger)}, opts.QueueOptions...)
	q, err := queue.Open(path, queueOpts...)
	if err != nil {
		return nil, fmt.Errorf("open janitor queue: %w", err)
	}

	j := &Janitor{
		queue:  q,
		cron:   cron.New(),
		logger: logger,
	}

	if opts.PruneCompletedSchedule != "" {
		if _, err := j.cron.AddFunc(opts.PruneCompletedSchedule, j.pruneCompleted); err != nil {
			_ = q.Close()
			return nil, fmt.Errorf("schedule completed prune: %w", err)
		}
	}
	if opts.PruneExpiredSchedule != "" {
		if _, err := j.cron.AddFunc(opts.PruneExpiredSchedule, j.pruneExpired); err != nil {
			_ = q.Close()
			return nil, fmt.Errorf("schedule expired prune: %w", err)
		}
	}
	return j, nil
}

// Start begins running the schedules in the background.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedules, waits for in-flight prunes, and releases the
// queue handle.
func (j *Janitor) Stop() error {
	<-j.cron.Stop().Done()
	return j.queue.Close()
}

func (j *Janitor) pruneCompleted() {
	j.mu.Lock()
	defer j.mu.Unlock()

	deleted, err := j.queue.DeleteCompletedJobs(context.Background())
	if err != nil {
		j.logger.Error("prune completed jobs", "error", err)
		return
	}
	if deleted > 0 {
		j.logger.Info("pruned completed jobs", "deleted", deleted)
	}
}

func (j *Janitor) pruneExpired() {
	j.mu.Lock()
	defer j.mu.Unlock()

	deleted, err := j.queue.DeleteExpiredJobs(context.Background())
	if err != nil {
		j.logger.Error("prune expired jobs", "error", err)
		return
	}
	if deleted > 0 {
		j.logger.Info("pruned expired jobs", "deleted", deleted)
	}
}
