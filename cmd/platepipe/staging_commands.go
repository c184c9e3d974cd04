package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"platepipe/internal/logging"
	"platepipe/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage task staging directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List task staging directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			if stagingDir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Staging directory not configured")
				return nil
			}

			dirs, err := staging.ListDirectories(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging directories found")
				return nil
			}

			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)
			var totalSize int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				age := time.Since(dir.ModTime).Truncate(time.Minute)
				totalSize += dir.Size
				rows = append(rows, []string{dir.Name, formatDuration(age), formatBytes(dir.Size)})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Task", "Age", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), formatBytes(totalSize))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var stale bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove staging directories no longer backed by the current plan",
		Long: `Remove staging directories that the current plan does not reference,
typically left behind by groups whose inputs changed or disappeared.

Use --stale to instead remove directories older than workflow.stale_staging_hours
regardless of plan membership.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if strings.TrimSpace(cfg.Paths.StagingDir) == "" {
				fmt.Fprintln(out, "Staging directory not configured")
				return nil
			}
			logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			var result staging.CleanResult
			label := "orphaned"
			if stale {
				label = "stale"
				maxAge := time.Duration(cfg.Workflow.StaleStagingHours) * time.Hour
				result = staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, maxAge, logger)
			} else {
				p, err := ctx.buildPlan(cfg)
				if err != nil {
					return err
				}
				active := make(map[string]struct{}, len(p.Units))
				for _, unit := range p.Units {
					active[staging.DirName(unit.Stage.String(), unit.GroupKey())] = struct{}{}
				}
				result = staging.CleanOrphaned(cmd.Context(), cfg.Paths.StagingDir, active, logger)
			}

			if len(result.Removed) == 0 && len(result.Errors) == 0 {
				fmt.Fprintf(out, "No %s directories to clean\n", label)
				return nil
			}
			fmt.Fprintf(out, "Removed %d %s directories\n", len(result.Removed), label)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stale, "stale", false, "Remove directories older than workflow.stale_staging_hours")
	return cmd
}

func formatDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
