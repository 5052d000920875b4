package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"joblin/internal/queue"
)

func newLockCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lock [id]",
		Short: "Lock a job, or claim the next eligible one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(cmdCtx context.Context, q *queue.Queue) error {
				if len(args) == 0 {
					job, err := q.LockNextJob(cmdCtx)
					if err != nil {
						return err
					}
					if job == nil {
						fmt.Fprintln(cmd.OutOrStdout(), "No eligible jobs")
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Locked job %d (starts at %s)\n", job.ID, formatTime(job.StartsAt))
					return nil
				}

				id, err := parseJobID(args[0])
				if err != nil {
					return err
				}
				locked, err := q.LockJob(cmdCtx, id)
				if err != nil {
					return err
				}
				if !locked {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d is already locked or does not exist\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Locked job %d\n", id)
				return nil
			})
		},
	}
}

func newUnlockCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <id>",
		Short: "Clear a job's lock flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withQueue(cmd.Context(), func(cmdCtx context.Context, q *queue.Queue) error {
				existed, err := q.UnlockJob(cmdCtx, id)
				if err != nil {
					return err
				}
				if !existed {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d does not exist\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unlocked job %d\n", id)
				return nil
			})
		},
	}
}

func newCompleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a job as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withQueue(cmd.Context(), func(cmdCtx context.Context, q *queue.Queue) error {
				updated, err := q.CompleteJob(cmdCtx, id)
				if err != nil {
					return err
				}
				if !updated {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d does not exist\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed job %d\n", id)
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withQueue(cmd.Context(), func(cmdCtx context.Context, q *queue.Queue) error {
				existed, err := q.DeleteJob(cmdCtx, id)
				if err != nil {
					return err
				}
				if !existed {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d does not exist\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %d\n", id)
				return nil
			})
		},
	}
}

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var (
		completed bool
		expired   bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete completed and/or expired jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !completed && !expired {
				completed = true
				expired = true
			}
			return ctx.withQueue(cmd.Context(), func(cmdCtx context.Context, q *queue.Queue) error {
				if completed {
					deleted, err := q.DeleteCompletedJobs(cmdCtx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d completed job(s)\n", deleted)
				}
				if expired {
					deleted, err := q.DeleteExpiredJobs(cmdCtx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired job(s)\n", deleted)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Delete completed jobs")
	cmd.Flags().BoolVar(&expired, "expired", false, "Delete expired jobs")
	return cmd
}
