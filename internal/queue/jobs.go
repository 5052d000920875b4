package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AddOption customizes the timestamps of a job being added.
type AddOption func(*addSpec)

type addSpec struct {
	createdAt    *float64
	startsAt     *float64
	expiresAt    *float64
	expiresAfter *float64
}

// CreatedAt sets the job's creation time instead of the queue clock.
func CreatedAt(t float64) AddOption {
	return func(spec *addSpec) { spec.createdAt = &t }
}

// StartsAt sets the time at which the job becomes eligible to run.
// It cannot be lower than the creation time. Defaults to the creation time.
func StartsAt(t float64) AddOption {
	return func(spec *addSpec) { spec.startsAt = &t }
}

// ExpiresAt sets the time at which the job expires. It cannot be lower than
// the start time. Jobs without an expiry never expire.
func ExpiresAt(t float64) AddOption {
	return func(spec *addSpec) { spec.expiresAt = &t }
}

// ExpiresAfter sets the expiry relative to the creation time. Only
// meaningful with AddJobFromNow; ExpiresAt takes precedence when both are
// given.
func ExpiresAfter(seconds float64) AddOption {
	return func(spec *addSpec) { spec.expiresAfter = &seconds }
}

// AddJob adds a job to the queue and returns the stored row.
//
// The creation time defaults to the queue clock and the start time to the
// creation time. Timestamps violating created_at <= starts_at <= expires_at
// fail with an error matching ErrConstraint.
func (q *Queue) AddJob(ctx context.Context, data []byte, opts ...AddOption) (*Job, error) {
	var spec addSpec
	for _, opt := range opts {
		opt(&spec)
	}

	createdAt := q.Now()
	if spec.createdAt != nil {
		createdAt = *spec.createdAt
	}
	startsAt := createdAt
	if spec.startsAt != nil {
		startsAt = *spec.startsAt
	}
	expiresAt := spec.expiresAt
	if expiresAt == nil && spec.expiresAfter != nil {
		at := createdAt + *spec.expiresAfter
		expiresAt = &at
	}

	res, err := q.db.ExecContext(
		ctx,
		`INSERT INTO job (data, created_at, starts_at, expires_at) VALUES (?, ?, ?, ?)`,
		data,
		createdAt,
		startsAt,
		nullableFloat(expiresAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", wrapConstraintErr(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return q.GetJobByID(ctx, id)
}

// AddJobFromNow adds a job whose start time is relative to the current time:
// starts_at = created_at + startsAfter. An ExpiresAfter option is resolved
// against the same creation time.
func (q *Queue) AddJobFromNow(ctx context.Context, data []byte, startsAfter float64, opts ...AddOption) (*Job, error) {
	var spec addSpec
	for _, opt := range opts {
		opt(&spec)
	}

	createdAt := q.Now()
	if spec.createdAt != nil {
		createdAt = *spec.createdAt
	}

	resolved := []AddOption{CreatedAt(createdAt), StartsAt(createdAt + startsAfter)}
	if spec.expiresAt != nil {
		resolved = append(resolved, ExpiresAt(*spec.expiresAt))
	} else if spec.expiresAfter != nil {
		resolved = append(resolved, ExpiresAt(createdAt+*spec.expiresAfter))
	}
	return q.AddJob(ctx, data, resolved...)
}

// GetJobByID fetches a job by ID. It returns (nil, nil) when no row exists.
func (q *Queue) GetJobByID(ctx context.Context, id int64) (*Job, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM job WHERE id = ?`, id)
	job, err := q.scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// nextJobFilter selects rows that are eligible for next-job selection:
// pending (not completed, not expired) and unlocked. Equal start times
// resolve to the lowest ID first.
const nextJobFilter = ` FROM job WHERE completed_at IS NULL
 AND (expires_at IS NULL OR ? < expires_at)
 AND locked_at IS NULL
 ORDER BY starts_at, id LIMIT 1`

// GetNextJob returns the next eligible job using the queue clock.
func (q *Queue) GetNextJob(ctx context.Context) (*Job, error) {
	return q.GetNextJobAt(ctx, q.Now())
}

// GetNextJobAt returns the earliest eligible pending job as of now, or
// (nil, nil) when the queue has none.
func (q *Queue) GetNextJobAt(ctx context.Context, now float64) (*Job, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+jobColumns+nextJobFilter, now)
	job, err := q.scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get next job: %w", err)
	}
	return job, nil
}

// JobDelay pairs a job ID with the seconds remaining until its start.
type JobDelay struct {
	ID    int64
	Delay float64
}

// GetNextJobDelay returns the next eligible job's ID and start delay using
// the queue clock.
func (q *Queue) GetNextJobDelay(ctx context.Context) (*JobDelay, error) {
	return q.GetNextJobDelayAt(ctx, q.Now())
}

// GetNextJobDelayAt returns the next eligible job's ID and the seconds to
// wait until it starts, clamped to zero when overdue. This avoids fetching
// the payload when only the timing is needed. Returns (nil, nil) when no job
// is pending.
//
// When a job's start and expiry times are equal its eligibility window is
// zero-width; re-fetch by ID after waiting rather than calling GetNextJob.
func (q *Queue) GetNextJobDelayAt(ctx context.Context, now float64) (*JobDelay, error) {
	var (
		id       int64
		startsAt float64
	)
	row := q.db.QueryRowContext(ctx, `SELECT id, starts_at`+nextJobFilter, now)
	err := row.Scan(&id, &startsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get next job delay: %w", err)
	}
	return &JobDelay{ID: id, Delay: clampDelay(startsAt, now)}, nil
}

// ListJobs returns every job in the queue in (starts_at, id) order,
// including completed, expired, and locked rows. Intended for inspection
// tooling; workers should use the next-job family instead.
func (q *Queue) ListJobs(ctx context.Context) ([]*Job, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM job ORDER BY starts_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := q.scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CountPendingJobs counts pending jobs using the queue clock.
func (q *Queue) CountPendingJobs(ctx context.Context) (int, error) {
	return q.CountPendingJobsAt(ctx, q.Now())
}

// CountPendingJobsAt counts jobs that are neither completed nor expired as
// of now. Locked jobs still count: a worker holding a job does not make it
// any less pending.
func (q *Queue) CountPendingJobsAt(ctx context.Context, now float64) (int, error) {
	var count int
	err := q.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM job WHERE completed_at IS NULL
		 AND (expires_at IS NULL OR ? < expires_at)`,
		now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending jobs: %w", err)
	}
	return count, nil
}
