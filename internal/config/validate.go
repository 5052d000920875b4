package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Workers.Count < 1 {
		return errors.New("workers.count must be at least 1")
	}
	if c.Workers.PollIntervalSeconds < 1 {
		return errors.New("workers.poll_interval_seconds must be at least 1")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}

	if err := validateSchedule("maintenance.prune_completed_schedule", c.Maintenance.PruneCompletedSchedule); err != nil {
		return err
	}
	if err := validateSchedule("maintenance.prune_expired_schedule", c.Maintenance.PruneExpiredSchedule); err != nil {
		return err
	}
	return nil
}

func validateSchedule(field, schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
