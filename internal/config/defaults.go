package config

const (
	defaultDatabasePath           = "~/.local/share/joblin/job.db"
	defaultLogDir                 = "~/.local/share/joblin/logs"
	defaultLogLevel               = "info"
	defaultLogFormat              = "console"
	defaultWorkerCount            = 2
	defaultPollIntervalSeconds    = 5
	defaultPruneCompletedSchedule = "@hourly"
	defaultPruneExpiredSchedule   = "@hourly"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		DatabasePath: defaultDatabasePath,
		LogDir:       defaultLogDir,
		Workers: Workers{
			Count:               defaultWorkerCount,
			PollIntervalSeconds: defaultPollIntervalSeconds,
		},
		Maintenance: Maintenance{
			PruneCompletedSchedule: defaultPruneCompletedSchedule,
			PruneExpiredSchedule:   defaultPruneExpiredSchedule,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
