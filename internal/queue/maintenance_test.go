package queue_test

import (
	"context"
	"testing"

	"joblin/internal/queue"
	"joblin/internal/testsupport"
)

func TestCompleteJob(t *testing.T) {
	q := testsupport.MustOpenQueue(t, testsupport.QueuePath(t))
	ctx := context.Background()

	job, err := q.AddJob(ctx, []byte("x"))
	if err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	updated, err := q.CompleteJobAt(ctx, job.ID, 9)
	if err != nil || !updated {
		t.Fatalf("CompleteJobAt failed: updated=%v err=%v", updated, err)
	}

	fetched, err := q.GetJobByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJobByID failed: %v", err)
	}
	if fetched.CompletedAt == nil || *fetched.CompletedAt != 9 {
		t.Fatalf("unexpected completion time: %v", fetched.CompletedAt)
	}

	// Completed jobs are excluded from pending queries even when unlocked.
	next, err := q.GetNextJob(ctx)
	if err != nil {
		t.Fatalf("GetNextJob failed: %v", err)
	}
	if next != nil {
		t.Fatalf("completed job must not be pending, got %+v", next)
	}
	count, err := q.CountPendingJobs(ctx)
	if err != nil {
		t.Fatalf("CountPendingJobs failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 pending jobs, got %d", count)
	}
}

func TestCompleteJobMissing(t *testing.T) {
	q := testsupport.MustOpenQueue(t, testsupport.QueuePath(t))

	updated, err := q.CompleteJob(context.Background(), 42)
	if err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}
	if updated {
		t.Fatal("completing a missing job must return false")
	}
}

func TestDeleteJobIdempotent(t *testing.T) {
	q := testsupport.MustOpenQueue(t, testsupport.QueuePath(t))
	ctx := context.Background()

	job, err := q.AddJob(ctx, []byte("x"))
	if err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	existed, err := q.DeleteJob(ctx, job.ID)
	if err != nil || !existed {
		t.Fatalf("DeleteJob failed: existed=%v err=%v", existed, err)
	}
	existed, err = q.DeleteJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	if existed {
		t.Fatal("second delete must return false")
	}
}

func TestDeleteCompletedJobs(t *testing.T) {
	q := testsupport.MustOpenQueue(t, testsupport.QueuePath(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		job, err := q.AddJob(ctx, []byte("x"))
		if err != nil {
			t.Fatalf("AddJob failed: %v", err)
		}
		if i < 2 {
			if _, err := q.CompleteJob(ctx, job.ID); err != nil {
				t.Fatalf("CompleteJob failed: %v", err)
			}
		}
	}

	deleted, err := q.DeleteCompletedJobs(ctx)
	if err != nil {
		t.Fatalf("DeleteCompletedJobs failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d", deleted)
	}
	count, err := q.CountPendingJobs(ctx)
	if err != nil {
		t.Fatalf("CountPendingJobs failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the uncompleted job to survive, got %d", count)
	}
}

func TestDeleteExpiredJobsSparesCompleted(t *testing.T) {
	q := testsupport.MustOpenQueue(t, testsupport.QueuePath(t))
	ctx := context.Background()

	expired, err := q.AddJob(ctx, []byte("expired"), queue.CreatedAt(0), queue.StartsAt(0), queue.ExpiresAt(1))
	if err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}
	completed, err := q.AddJob(ctx, []byte("completed"), queue.CreatedAt(0), queue.StartsAt(0), queue.ExpiresAt(1))
	if err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}
	if _, err := q.CompleteJob(ctx, completed.ID); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}

	deleted, err := q.DeleteExpiredJobsAt(ctx, 5)
	if err != nil {
		t.Fatalf("DeleteExpiredJobsAt failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected only the uncompleted expired job deleted, got %d", deleted)
	}

	gone, err := q.GetJobByID(ctx, expired.ID)
	if err != nil {
		t.Fatalf("GetJobByID failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("expired job must be deleted, got %+v", gone)
	}
	kept, err := q.GetJobByID(ctx, completed.ID)
	if err != nil {
		t.Fatalf("GetJobByID failed: %v", err)
	}
	if kept == nil {
		t.Fatal("completed job must never be pruned as expired")
	}
}

func TestDeleteExpiredJobsBoundary(t *testing.T) {
	q := testsupport.MustOpenQueue(t, testsupport.QueuePath(t))
	ctx := context.Background()

	if _, err := q.AddJob(ctx, []byte("x"), queue.CreatedAt(0), queue.StartsAt(0), queue.ExpiresAt(3)); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	// now < expires_at keeps the job; now == expires_at expires it.
	deleted, err := q.DeleteExpiredJobsAt(ctx, 2)
	if err != nil {
		t.Fatalf("DeleteExpiredJobsAt failed: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("job not yet expired, got %d deletions", deleted)
	}
	deleted, err = q.DeleteExpiredJobsAt(ctx, 3)
	if err != nil {
		t.Fatalf("DeleteExpiredJobsAt failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("job expired at its expiry instant, got %d deletions", deleted)
	}
}
