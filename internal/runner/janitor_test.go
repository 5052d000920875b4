package runner_test

import (
	"context"
	"testing"
	"time"

	"joblin/internal/queue"
	"joblin/internal/runner"
	"joblin/internal/testsupport"
)

func TestNewJanitorRejectsBadSchedule(t *testing.T) {
	_, err := runner.NewJanitor(testsupport.QueuePath(t), runner.JanitorOptions{
		Logger:                 testsupport.DiscardLogger(),
		PruneCompletedSchedule: "not a schedule",
	})
	if err == nil {
		t.Fatal("expected an error for an unparseable schedule")
	}
}

func TestJanitorPrunesOnSchedule(t *testing.T) {
	path := testsupport.QueuePath(t)

	producer, err := queue.Open(path, queue.WithLogger(testsupport.DiscardLogger()))
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	defer producer.Close()

	ctx := context.Background()
	completed, err := producer.AddJob(ctx, []byte("done"))
	if err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}
	if _, err := producer.CompleteJob(ctx, completed.ID); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}
	pending, err := producer.AddJob(ctx, []byte("pending"))
	if err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	janitor, err := runner.NewJanitor(path, runner.JanitorOptions{
		Logger:                 testsupport.DiscardLogger(),
		PruneCompletedSchedule: "@every 50ms",
	})
	if err != nil {
		t.Fatalf("NewJanitor failed: %v", err)
	}
	janitor.Start()
	defer func() {
		if err := janitor.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	}()

	waitFor(t, 5*time.Second, func() bool {
		fetched, err := producer.GetJobByID(ctx, completed.ID)
		if err != nil {
			t.Fatalf("GetJobByID failed: %v", err)
		}
		return fetched == nil
	})

	kept, err := producer.GetJobByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetJobByID failed: %v", err)
	}
	if kept == nil {
		t.Fatal("pending job must survive the completed prune")
	}
}
