package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.DatabasePath) == "" {
		c.DatabasePath = defaultDatabasePath
	}
	if c.DatabasePath != ":memory:" {
		if c.DatabasePath, err = expandPath(c.DatabasePath); err != nil {
			return fmt.Errorf("database_path: %w", err)
		}
	}
	if strings.TrimSpace(c.LogDir) == "" {
		c.LogDir = defaultLogDir
	}
	if c.LogDir, err = expandPath(c.LogDir); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}

	if c.Workers.Count == 0 {
		c.Workers.Count = defaultWorkerCount
	}
	if c.Workers.PollIntervalSeconds == 0 {
		c.Workers.PollIntervalSeconds = defaultPollIntervalSeconds
	}

	c.Maintenance.PruneCompletedSchedule = strings.TrimSpace(c.Maintenance.PruneCompletedSchedule)
	c.Maintenance.PruneExpiredSchedule = strings.TrimSpace(c.Maintenance.PruneExpiredSchedule)

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}
