package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"joblin/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage joblin configuration",
	}
	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = *ctx.configFlag
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "database_path = %q\n", cfg.DatabasePath)
			fmt.Fprintf(out, "log_dir = %q\n", cfg.LogDir)
			fmt.Fprintf(out, "workers.count = %d\n", cfg.Workers.Count)
			fmt.Fprintf(out, "workers.poll_interval_seconds = %d\n", cfg.Workers.PollIntervalSeconds)
			fmt.Fprintf(out, "maintenance.prune_completed_schedule = %q\n", cfg.Maintenance.PruneCompletedSchedule)
			fmt.Fprintf(out, "maintenance.prune_expired_schedule = %q\n", cfg.Maintenance.PruneExpiredSchedule)
			fmt.Fprintf(out, "logging.level = %q\n", cfg.Logging.Level)
			fmt.Fprintf(out, "logging.format = %q\n", cfg.Logging.Format)
			return nil
		},
	}
}
