package queue

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Clock returns the current time as floating-point seconds. The default
// clock reads the wall clock; in-memory queues may prefer a monotonic one.
type Clock func() float64

// Queue manages job persistence backed by SQLite.
//
// Each Queue owns exactly one database connection. It is not safe for
// concurrent use; open one Queue per worker instead.
type Queue struct {
	db     *sql.DB
	path   string
	now    Clock
	logger *slog.Logger
}

// Option customizes a Queue created by Open.
type Option func(*Queue)

// WithClock overrides the queue's time source.
func WithClock(now Clock) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithLogger sets the logger used for migration diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// Open initializes or connects to the queue database at path and applies
// migrations. ":memory:" opens an in-memory queue.
func Open(path string, opts ...Option) (*Queue, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// One connection per handle. The pool must never rotate it: an
	// in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	q := &Queue{
		db:     db,
		path:   path,
		now:    func() float64 { return float64(time.Now().UnixNano()) / float64(time.Second) },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}

	if err := q.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return q, nil
}

// Close closes the underlying database connection.
func (q *Queue) Close() error {
	if q == nil || q.db == nil {
		return nil
	}
	return q.db.Close()
}

// Path returns the database path the queue was opened with.
func (q *Queue) Path() string {
	return q.path
}

// Now returns the current time according to the queue's clock.
func (q *Queue) Now() float64 {
	return q.now()
}

// immediate runs fn inside a BEGIN IMMEDIATE transaction on a dedicated
// connection, acquiring SQLite's write lock up front so concurrent handles
// cannot interleave between the read and write halves of fn.
func (q *Queue) immediate(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := q.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin immediate: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	if err := fn(conn); err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
