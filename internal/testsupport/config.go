package testsupport

import (
	"path/filepath"
	"testing"

	"joblin/internal/config"
)

// NewConfig produces a config seeded with unique temp paths per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(base, "job.db")
	cfg.LogDir = filepath.Join(base, "logs")
	return &cfg
}
