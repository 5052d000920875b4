package queue

import (
	"context"
	"fmt"
)

// CompleteJob marks a job as completed using the queue clock.
func (q *Queue) CompleteJob(ctx context.Context, id int64) (bool, error) {
	return q.CompleteJobAt(ctx, id, q.Now())
}

// CompleteJobAt marks the given job as completed, permanently excluding it
// from pending queries. It does not check whether the job was already
// completed; a missing row is a no-op returning false.
func (q *Queue) CompleteJobAt(ctx context.Context, id int64, completedAt float64) (bool, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE job SET completed_at = ? WHERE id = ?`, completedAt, id)
	if err != nil {
		return false, fmt.Errorf("complete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteJob removes a job by ID. It reports whether the row existed;
// deleting an already-deleted job is a normal false result, not an error.
func (q *Queue) DeleteJob(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM job WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteCompletedJobs removes every completed job and returns the count.
func (q *Queue) DeleteCompletedJobs(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM job WHERE completed_at IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("delete completed jobs: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpiredJobs removes expired jobs as of the queue clock.
func (q *Queue) DeleteExpiredJobs(ctx context.Context) (int64, error) {
	return q.DeleteExpiredJobsAt(ctx, q.Now())
}

// DeleteExpiredJobsAt removes jobs whose expiry has passed as of now.
// Completed jobs are never considered expired, whatever their expires_at.
func (q *Queue) DeleteExpiredJobsAt(ctx context.Context, now float64) (int64, error) {
	res, err := q.db.ExecContext(
		ctx,
		`DELETE FROM job WHERE completed_at IS NULL
		 AND expires_at IS NOT NULL AND ? >= expires_at`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired jobs: %w", err)
	}
	return res.RowsAffected()
}
