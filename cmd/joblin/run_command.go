package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"joblin/internal/config"
	"joblin/internal/logging"
	"joblin/internal/queue"
	"joblin/internal/runner"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var workerCount int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run workers that claim and execute queued jobs",
		Long: "Run starts a pool of workers against the configured queue database. " +
			"Each worker opens its own connection, claims jobs atomically, waits out " +
			"their start delay, and logs the payload as its work. A janitor prunes " +
			"completed and expired jobs on the configured cron schedules.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if workerCount > 0 {
				cfg.Workers.Count = workerCount
			}
			return runWorkers(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&workerCount, "workers", 0, "Override the configured worker count")
	return cmd
}

func runWorkers(cmdCtx context.Context, cfg *config.Config) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	// One runner per database. Workers tolerate each other; a second runner
	// with the same janitor schedules is just waste.
	lock := flock.New(filepath.Join(cfg.LogDir, "joblin.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire runner lock: %w", err)
	}
	if !locked {
		return errors.New("another joblin runner is already using this queue")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release runner lock", "error", err)
		}
	}()

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	janitor, err := runner.NewJanitor(cfg.DatabasePath, runner.JanitorOptions{
		Logger:                 logger,
		PruneCompletedSchedule: cfg.Maintenance.PruneCompletedSchedule,
		PruneExpiredSchedule:   cfg.Maintenance.PruneExpiredSchedule,
	})
	if err != nil {
		return err
	}
	janitor.Start()
	defer func() {
		if err := janitor.Stop(); err != nil {
			logger.Warn("stop janitor", "error", err)
		}
	}()

	pollInterval := time.Duration(cfg.Workers.PollIntervalSeconds) * time.Second
	workers := make([]*runner.Worker, 0, cfg.Workers.Count)
	for i := 0; i < cfg.Workers.Count; i++ {
		worker, err := runner.NewWorker(cfg.DatabasePath, logPayloadHandler(logger), runner.WorkerOptions{
			Logger:       logger,
			PollInterval: pollInterval,
		})
		if err != nil {
			for _, w := range workers {
				_ = w.Close()
			}
			return err
		}
		workers = append(workers, worker)
	}

	logger.Info("runner started",
		"database", cfg.DatabasePath,
		"workers", len(workers))

	var wg sync.WaitGroup
	for _, worker := range workers {
		wg.Add(1)
		go func(w *runner.Worker) {
			defer wg.Done()
			defer w.Close()
			_ = w.Run(signalCtx)
		}(worker)
	}
	wg.Wait()

	logger.Info("runner stopped")
	return nil
}

// logPayloadHandler is the illustrative executor: payload interpretation is
// out of the queue's hands, so the stock runner just reports what it claimed.
func logPayloadHandler(logger *slog.Logger) runner.Handler {
	return func(ctx context.Context, job *queue.Job) error {
		logger.Info("running job", "job", job.ID, "data", previewData(job.Data))
		return nil
	}
}
