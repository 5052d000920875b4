package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LockJob attempts to lock a job using the queue clock as the lock time.
func (q *Queue) LockJob(ctx context.Context, id int64) (bool, error) {
	return q.LockJobAt(ctx, id, q.Now())
}

// LockJobAt attempts to lock the given job, hiding it from next-job
// selection until unlocked. The check and the update run in one BEGIN
// IMMEDIATE transaction so that of any two concurrent callers at most one
// can succeed. Returns false when the job is already locked or was deleted.
func (q *Queue) LockJobAt(ctx context.Context, id int64, lockedAt float64) (bool, error) {
	var locked bool
	err := q.immediate(ctx, func(conn *sql.Conn) error {
		var current sql.NullFloat64
		err := conn.QueryRowContext(ctx, `SELECT locked_at FROM job WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("check lock state: %w", err)
		}
		if current.Valid {
			return nil
		}
		if _, err := conn.ExecContext(ctx, `UPDATE job SET locked_at = ? WHERE id = ?`, lockedAt, id); err != nil {
			return fmt.Errorf("set lock: %w", err)
		}
		locked = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("lock job: %w", err)
	}
	return locked, nil
}

// LockNextJob claims the next eligible job using the queue clock.
func (q *Queue) LockNextJob(ctx context.Context) (*Job, error) {
	return q.LockNextJobAt(ctx, q.Now())
}

// LockNextJobAt fetches and locks the next eligible job in a single BEGIN
// IMMEDIATE transaction, closing the race window left open by calling
// GetNextJob and LockJob separately. The returned snapshot has LockedAt set
// to now. Returns (nil, nil) when no job is eligible.
func (q *Queue) LockNextJobAt(ctx context.Context, now float64) (*Job, error) {
	var job *Job
	err := q.immediate(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, `SELECT `+jobColumns+nextJobFilter, now)
		next, err := q.scanJob(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("select next job: %w", err)
		}
		if _, err := conn.ExecContext(ctx, `UPDATE job SET locked_at = ? WHERE id = ?`, now, next.ID); err != nil {
			return fmt.Errorf("set lock: %w", err)
		}
		next.LockedAt = &now
		job = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lock next job: %w", err)
	}
	return job, nil
}

// LockNextJobDelay claims the next eligible job using the queue clock and
// returns only its ID and start delay.
func (q *Queue) LockNextJobDelay(ctx context.Context) (*JobDelay, error) {
	return q.LockNextJobDelayAt(ctx, q.Now())
}

// LockNextJobDelayAt is the atomic claim variant of GetNextJobDelayAt: it
// locks the next eligible job and returns its ID with the seconds to wait
// until its start, clamped to zero when overdue. Returns (nil, nil) when no
// job is eligible.
//
// After waiting, re-fetch the job by ID rather than calling GetNextJob: the
// row may have been completed or deleted in the meantime, and jobs whose
// start and expiry coincide are only observable by ID.
func (q *Queue) LockNextJobDelayAt(ctx context.Context, now float64) (*JobDelay, error) {
	var delay *JobDelay
	err := q.immediate(ctx, func(conn *sql.Conn) error {
		var (
			id       int64
			startsAt float64
		)
		row := conn.QueryRowContext(ctx, `SELECT id, starts_at`+nextJobFilter, now)
		err := row.Scan(&id, &startsAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("select next job: %w", err)
		}
		if _, err := conn.ExecContext(ctx, `UPDATE job SET locked_at = ? WHERE id = ?`, now, id); err != nil {
			return fmt.Errorf("set lock: %w", err)
		}
		delay = &JobDelay{ID: id, Delay: clampDelay(startsAt, now)}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lock next job delay: %w", err)
	}
	return delay, nil
}

// UnlockJob clears a job's lock flag, making it selectable again. Unlike
// LockJob this is idempotent: it returns true while the row exists, even if
// the job was never locked. False means the row is gone.
func (q *Queue) UnlockJob(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE job SET locked_at = NULL WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("unlock job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
