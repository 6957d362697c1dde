package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidfetch/internal/config"
	"vidfetch/internal/deps"
	"vidfetch/internal/jobs"
	"vidfetch/internal/preflight"
	"vidfetch/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dependency, directory and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			return ctx.withManager(logger, func(cfg *config.Config, manager *jobs.Manager) error {
				fmt.Fprintf(out, "Config: %s\n\n", ctx.configPath)

				statuses := preflight.CheckSystemDeps(cfg)
				writeLines(out, renderSectionHeader("Dependencies", colorize))
				fmt.Fprintln(out, renderDependencyTable(statuses))
				if version := ytdlpVersion(cmd.Context(), cfg, statuses); version != "" {
					fmt.Fprintln(out, renderStatusLine("yt-dlp version", statusInfo, version, colorize))
				}
				fmt.Fprintln(out)

				writeLines(out, renderSectionHeader("Checks", colorize))
				for _, result := range preflight.RunAll(cmd.Context(), cfg, probe) {
					kind := statusOK
					if !result.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
				}
				fmt.Fprintln(out)

				counts, err := manager.Store().Stats(cmd.Context())
				if err != nil {
					return err
				}
				writeLines(out, renderSectionHeader("Jobs", colorize))
				for _, status := range jobs.AllStatuses() {
					fmt.Fprintln(out, renderStatusLine(string(status), statusInfo, fmt.Sprintf("%d", counts[status]), colorize))
				}
				dirs, err := staging.ListDirectories(cfg.Paths.DownloadDir)
				if err != nil {
					return fmt.Errorf("list job directories: %w", err)
				}
				var total int64
				for _, dir := range dirs {
					total += dir.Size
				}
				fmt.Fprintln(out, renderStatusLine("disk usage", statusInfo, fmt.Sprintf("%d directories, %s", len(dirs), humanize.IBytes(uint64(total))), colorize))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Send one live request to the translation API")
	return cmd
}

func renderDependencyTable(statuses []deps.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		state := "available"
		if !status.Available {
			state = "missing"
			if status.Optional {
				state = "missing (optional)"
			}
		}
		detail := status.Detail
		if detail == "" {
			detail = status.Path
		}
		rows = append(rows, []string{status.Name, status.Command, state, detail})
	}
	return renderTable([]string{"Name", "Command", "State", "Detail"}, rows, nil)
}

func ytdlpVersion(ctx context.Context, cfg *config.Config, statuses []deps.Status) string {
	if len(statuses) == 0 || !statuses[0].Available {
		return ""
	}
	version, err := newYtDLP(cfg, nil).Version(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(version)
}

func writeLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
