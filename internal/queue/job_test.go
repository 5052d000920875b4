package queue_test

import (
	"context"
	"testing"

	"joblin/internal/queue"
	"joblin/internal/testsupport"
)

func TestJobForwardingMethods(t *testing.T) {
	q := testsupport.MustOpenQueue(t, testsupport.QueuePath(t))
	ctx := context.Background()

	job, err := q.AddJob(ctx, []byte("x"))
	if err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	locked, err := job.Lock(ctx)
	if err != nil || !locked {
		t.Fatalf("Lock failed: locked=%v err=%v", locked, err)
	}
	unlocked, err := job.Unlock(ctx)
	if err != nil || !unlocked {
		t.Fatalf("Unlock failed: unlocked=%v err=%v", unlocked, err)
	}
	completed, err := job.Complete(ctx)
	if err != nil || !completed {
		t.Fatalf("Complete failed: completed=%v err=%v", completed, err)
	}

	// The snapshot never updates itself.
	if job.CompletedAt != nil || job.LockedAt != nil {
		t.Fatalf("snapshot mutated locally: %+v", job)
	}
	fetched, err := q.GetJobByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJobByID failed: %v", err)
	}
	if fetched.CompletedAt == nil {
		t.Fatal("completion must be visible on re-fetch")
	}

	existed, err := job.Delete(ctx)
	if err != nil || !existed {
		t.Fatalf("Delete failed: existed=%v err=%v", existed, err)
	}
	completed, err = job.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed {
		t.Fatal("completing a deleted job must return false")
	}
}

func TestJobDelayClamped(t *testing.T) {
	now := 0.0
	q := testsupport.MustOpenQueue(t, testsupport.QueuePath(t),
		queue.WithClock(func() float64 { return now }))
	ctx := context.Background()

	job, err := q.AddJob(ctx, []byte("x"), queue.CreatedAt(0), queue.StartsAt(10))
	if err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	now = 4
	if delay := job.Delay(); delay != 6 {
		t.Fatalf("expected delay 6, got %v", delay)
	}
	now = 25
	if delay := job.Delay(); delay != 0 {
		t.Fatalf("overdue delay must clamp to 0, got %v", delay)
	}
}
