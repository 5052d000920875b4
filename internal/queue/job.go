package queue

import (
	"context"
	"database/sql"
)

// Job is a read-only snapshot of one queue row taken at fetch time.
//
// Snapshots never refresh themselves: the forwarding methods below mutate
// the row through the owning queue but leave the local fields untouched, so
// callers must re-fetch by ID before trusting CompletedAt or LockedAt after
// any delay. Forwarding methods share the owning queue's connection and
// inherit its single-threaded discipline.
type Job struct {
	queue *Queue

	// ID is unique and monotonically assigned; SQLite's AUTOINCREMENT
	// guarantees it is never reused, even after deletion.
	ID int64
	// Data is the opaque payload stored with the job.
	Data []byte
	// CreatedAt is the time at which the job was created.
	CreatedAt float64
	// StartsAt is the time at which the job should be executed.
	StartsAt float64
	// ExpiresAt is the time at which the job expires, or nil to never expire.
	ExpiresAt *float64
	// CompletedAt is the completion time, or nil while uncompleted.
	CompletedAt *float64
	// LockedAt is the advisory lock time, or nil while unlocked.
	LockedAt *float64
}

// Complete marks the job as completed via the owning queue.
// If the job no longer exists this is a no-op returning false.
func (j *Job) Complete(ctx context.Context) (bool, error) {
	return j.queue.CompleteJob(ctx, j.ID)
}

// Delete removes the job from the queue. It reports whether the row existed.
func (j *Job) Delete(ctx context.Context) (bool, error) {
	return j.queue.DeleteJob(ctx, j.ID)
}

// Lock attempts to lock the job, hiding it from next-job selection.
// It returns false if the job is already locked or was deleted.
func (j *Job) Lock(ctx context.Context) (bool, error) {
	return j.queue.LockJob(ctx, j.ID)
}

// Unlock clears the job's lock flag. Unlike Lock it returns true even when
// the job was already unlocked; false means the row is gone.
func (j *Job) Unlock(ctx context.Context) (bool, error) {
	return j.queue.UnlockJob(ctx, j.ID)
}

// Delay returns the seconds until the job starts according to the owning
// queue's clock, clamped to zero when the start time is overdue.
func (j *Job) Delay() float64 {
	return clampDelay(j.StartsAt, j.queue.Now())
}

func clampDelay(startsAt, now float64) float64 {
	if delay := startsAt - now; delay > 0 {
		return delay
	}
	return 0
}

const jobColumns = "id, data, created_at, starts_at, expires_at, completed_at, locked_at"

func (q *Queue) scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id          int64
		data        []byte
		createdAt   float64
		startsAt    float64
		expiresAt   sql.NullFloat64
		completedAt sql.NullFloat64
		lockedAt    sql.NullFloat64
	)
	if err := scanner.Scan(&id, &data, &createdAt, &startsAt, &expiresAt, &completedAt, &lockedAt); err != nil {
		return nil, err
	}

	job := &Job{
		queue:     q,
		ID:        id,
		Data:      data,
		CreatedAt: createdAt,
		StartsAt:  startsAt,
	}
	if expiresAt.Valid {
		job.ExpiresAt = &expiresAt.Float64
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Float64
	}
	if lockedAt.Valid {
		job.LockedAt = &lockedAt.Float64
	}
	return job, nil
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
