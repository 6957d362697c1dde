package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vidfetch/internal/config"
	"vidfetch/internal/jobs"
	"vidfetch/internal/services"
	"vidfetch/internal/staging"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and maintain the job store",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsSweepCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(true)
			if err != nil {
				return err
			}
			return ctx.withManager(logger, func(_ *config.Config, manager *jobs.Manager) error {
				list, err := manager.Store().List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}
				fmt.Fprintln(out, renderJobsTable(list))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (created, running, complete, failed)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(true)
			if err != nil {
				return err
			}
			return ctx.withManager(logger, func(_ *config.Config, manager *jobs.Manager) error {
				job, err := manager.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:      %s\n", job.ID)
				fmt.Fprintf(out, "Kind:     %s\n", job.Kind)
				fmt.Fprintf(out, "Status:   %s\n", job.Status)
				fmt.Fprintf(out, "Source:   %s\n", job.SourceURL)
				fmt.Fprintf(out, "Dir:      %s\n", job.Dir)
				if job.OutputFile != "" {
					fmt.Fprintf(out, "File:     %s\n", job.OutputFile)
					fmt.Fprintf(out, "Download: %s\n", staging.ServePath(job.ID, job.OutputFile))
				}
				if msg := jobs.DescribeError(job); msg != "" {
					fmt.Fprintf(out, "Error:    %s\n", msg)
				}
				fmt.Fprintf(out, "Created:  %s\n", job.CreatedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Updated:  %s\n", job.UpdatedAt.Local().Format(time.DateTime))
				return nil
			})
		},
	}
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id>...",
		Short: "Remove finished jobs and their files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(true)
			if err != nil {
				return err
			}
			return ctx.withManager(logger, func(_ *config.Config, manager *jobs.Manager) error {
				out := cmd.OutOrStdout()
				var failures []error
				for _, id := range args {
					id = strings.TrimSpace(id)
					if err := manager.Remove(cmd.Context(), id); err != nil {
						if errors.Is(err, services.ErrConflict) {
							err = fmt.Errorf("job %s is still running", id)
						}
						failures = append(failures, err)
						continue
					}
					fmt.Fprintf(out, "Removed job %s\n", id)
				}
				return errors.Join(failures...)
			})
		},
	}
}

func newJobsSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one retention pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(true)
			if err != nil {
				return err
			}
			return ctx.withManager(logger, func(cfg *config.Config, manager *jobs.Manager) error {
				out := cmd.OutOrStdout()
				if cfg.JobTTL() <= 0 {
					fmt.Fprintln(out, "Retention disabled (retention.job_ttl_hours = 0)")
					return nil
				}
				result, err := manager.Sweep(cmd.Context())
				fmt.Fprintf(out, "Expired: %d, abandoned: %d, orphan directories: %d\n", result.Expired, result.Abandoned, result.Orphans)
				return err
			})
		},
	}
}

func parseStatuses(values []string) ([]jobs.Status, error) {
	var statuses []jobs.Status
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := jobs.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func renderJobsTable(list []*jobs.Job) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			job.ID,
			string(job.Kind),
			string(job.Status),
			job.OutputFile,
			job.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	return renderTable([]string{"ID", "Kind", "Status", "File", "Updated"}, rows, nil)
}
