package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"joblin/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		startsAfter  float64
		expiresAfter float64
		startsAt     float64
		expiresAt    float64
	)

	cmd := &cobra.Command{
		Use:   "add <data>",
		Short: "Add a job to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(cmdCtx context.Context, q *queue.Queue) error {
				var opts []queue.AddOption
				if cmd.Flags().Changed("starts-at") {
					opts = append(opts, queue.StartsAt(startsAt))
				}
				if cmd.Flags().Changed("expires-at") {
					opts = append(opts, queue.ExpiresAt(expiresAt))
				}
				if cmd.Flags().Changed("expires-after") {
					opts = append(opts, queue.ExpiresAfter(expiresAfter))
				}

				var (
					job *queue.Job
					err error
				)
				if cmd.Flags().Changed("starts-after") {
					job, err = q.AddJobFromNow(cmdCtx, []byte(args[0]), startsAfter, opts...)
				} else {
					job, err = q.AddJob(cmdCtx, []byte(args[0]), opts...)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added job %d (starts at %s)\n", job.ID, formatTime(job.StartsAt))
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&startsAfter, "starts-after", 0, "Start delay in seconds from now")
	cmd.Flags().Float64Var(&expiresAfter, "expires-after", 0, "Expiry in seconds from now")
	cmd.Flags().Float64Var(&startsAt, "starts-at", 0, "Absolute start time in seconds")
	cmd.Flags().Float64Var(&expiresAt, "expires-at", 0, "Absolute expiry time in seconds")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every job, including completed and locked ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(cmdCtx context.Context, q *queue.Queue) error {
				jobs, err := q.ListJobs(cmdCtx)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						formatTime(job.StartsAt),
						formatOptionalTime(job.ExpiresAt),
						formatOptionalTime(job.CompletedAt),
						formatOptionalTime(job.LockedAt),
						previewData(job.Data),
					})
				}
				out := renderTable(
					[]string{"ID", "Starts", "Expires", "Completed", "Locked", "Data"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withQueue(cmd.Context(), func(cmdCtx context.Context, q *queue.Queue) error {
				job, err := q.GetJobByID(cmdCtx, id)
				if err != nil {
					return err
				}
				if job == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d not found\n", id)
					return nil
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:         %d\n", job.ID)
				fmt.Fprintf(out, "Created:    %s\n", formatTime(job.CreatedAt))
				fmt.Fprintf(out, "Starts:     %s\n", formatTime(job.StartsAt))
				fmt.Fprintf(out, "Expires:    %s\n", formatOptionalTime(job.ExpiresAt))
				fmt.Fprintf(out, "Completed:  %s\n", formatOptionalTime(job.CompletedAt))
				fmt.Fprintf(out, "Locked:     %s\n", formatOptionalTime(job.LockedAt))
				fmt.Fprintf(out, "Delay:      %s\n", formatTime(job.Delay()))
				fmt.Fprintf(out, "Data:       %s\n", previewData(job.Data))
				return nil
			})
		},
	}
}

func newNextCommand(ctx *commandContext) *cobra.Command {
	var delayOnly bool

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next eligible job without locking it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(cmdCtx context.Context, q *queue.Queue) error {
				if delayOnly {
					delay, err := q.GetNextJobDelay(cmdCtx)
					if err != nil {
						return err
					}
					if delay == nil {
						fmt.Fprintln(cmd.OutOrStdout(), "No pending jobs")
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d starts in %ss\n", delay.ID, formatTime(delay.Delay))
					return nil
				}

				job, err := q.GetNextJob(cmdCtx)
				if err != nil {
					return err
				}
				if job == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending jobs")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d starts at %s: %s\n", job.ID, formatTime(job.StartsAt), previewData(job.Data))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&delayOnly, "delay", false, "Print only the job ID and start delay")
	return cmd
}

func newCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count pending jobs (locked jobs included)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(cmdCtx context.Context, q *queue.Queue) error {
				count, err := q.CountPendingJobs(cmdCtx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), count)
				return nil
			})
		},
	}
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return id, nil
}

func formatTime(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

func formatOptionalTime(seconds *float64) string {
	if seconds == nil {
		return "-"
	}
	return formatTime(*seconds)
}

func previewData(data []byte) string {
	const maxPreview = 48
	if len(data) == 0 {
		return "-"
	}
	if len(data) > maxPreview {
		return string(data[:maxPreview]) + "..."
	}
	return string(data)
}
