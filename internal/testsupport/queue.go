// Package testsupport provides helpers shared by tests across the repo.
package testsupport

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"joblin/internal/queue"
)

// MustOpenQueue opens a queue for tests and registers cleanup. The queue
// uses a fixed clock returning zero unless overridden via opts.
func MustOpenQueue(t testing.TB, path string, opts ...queue.Option) *queue.Queue {
	t.Helper()

	combined := append([]queue.Option{
		queue.WithClock(func() float64 { return 0 }),
		queue.WithLogger(DiscardLogger()),
	}, opts...)

	q, err := queue.Open(path, combined...)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		q.Close()
	})
	return q
}

// QueuePath returns a database path inside a per-test temp directory.
func QueuePath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "job.db")
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
