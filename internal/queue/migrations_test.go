package queue_test

import (
	"context"
	"database/sql"
	"testing"

	"joblin/internal/queue"
	"joblin/internal/testsupport"
)

// The schema shipped before versioning existed: job table only, no
// job_schema, no locked_at column.
const preVersioningSchema = `
CREATE TABLE job (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    data BLOB,
    created_at REAL NOT NULL,
    starts_at REAL NOT NULL,
    expires_at REAL,
    completed_at REAL,
    CONSTRAINT job_must_be_created_before_start CHECK (created_at <= starts_at),
    CONSTRAINT job_must_start_before_expiration CHECK (expires_at IS NULL OR starts_at <= expires_at)
);
CREATE INDEX ix_job_starts_at_expires_at ON job (starts_at, expires_at);
`

func storedSchemaVersion(t *testing.T, path string) int {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()

	var version int
	if err := db.QueryRow(`SELECT value FROM job_schema WHERE key = 'version'`).Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	return version
}

func TestMigrateFreshDatabase(t *testing.T) {
	path := testsupport.QueuePath(t)
	q := testsupport.MustOpenQueue(t, path)

	if _, err := q.AddJob(context.Background(), []byte("x")); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}
	if got := storedSchemaVersion(t, path); got != 1 {
		t.Fatalf("expected schema version 1, got %d", got)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := testsupport.QueuePath(t)

	q1 := testsupport.MustOpenQueue(t, path)
	job, err := q1.AddJob(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}
	if err := q1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Re-opening at the latest version must be a no-op, not an error.
	q2 := testsupport.MustOpenQueue(t, path)
	fetched, err := q2.GetJobByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetJobByID failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("job lost across reopen")
	}
	if got := storedSchemaVersion(t, path); got != 1 {
		t.Fatalf("expected schema version 1, got %d", got)
	}
}

func TestMigrateUpgradesPreVersioningDatabase(t *testing.T) {
	path := testsupport.QueuePath(t)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec(preVersioningSchema); err != nil {
		t.Fatalf("create pre-versioning schema: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO job (data, created_at, starts_at) VALUES (?, 0, 0)`, []byte("old")); err != nil {
		t.Fatalf("insert legacy job: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	q := testsupport.MustOpenQueue(t, path)
	ctx := context.Background()

	// Migration must preserve the legacy row and add locking support.
	job, err := q.GetNextJob(ctx)
	if err != nil {
		t.Fatalf("GetNextJob failed: %v", err)
	}
	if job == nil {
		t.Fatal("legacy job lost during migration")
	}
	locked, err := q.LockJob(ctx, job.ID)
	if err != nil || !locked {
		t.Fatalf("LockJob on migrated schema failed: locked=%v err=%v", locked, err)
	}
	if got := storedSchemaVersion(t, path); got != 1 {
		t.Fatalf("expected schema version 1, got %d", got)
	}
}

func TestMigrateSkipsUnknownNewerVersion(t *testing.T) {
	path := testsupport.QueuePath(t)

	q1 := testsupport.MustOpenQueue(t, path)
	if _, err := q1.AddJob(context.Background(), []byte("x")); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}
	if err := q1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec(`UPDATE job_schema SET value = 99 WHERE key = 'version'`); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	// A database from the future opens fine; migration is skipped and the
	// version is left untouched.
	q2, err := queue.Open(path,
		queue.WithClock(func() float64 { return 0 }),
		queue.WithLogger(testsupport.DiscardLogger()))
	if err != nil {
		t.Fatalf("Open failed on newer schema version: %v", err)
	}
	defer q2.Close()

	if _, err := q2.AddJob(context.Background(), []byte("y")); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}
	if got := storedSchemaVersion(t, path); got != 99 {
		t.Fatalf("unknown version must be preserved, got %d", got)
	}
}
