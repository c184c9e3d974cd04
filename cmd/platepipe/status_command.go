package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"platepipe/internal/runstate"
	"platepipe/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show task ledger and staging footprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runstate.Open(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Task Ledger", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Total", statusInfo, strconv.Itoa(summary.Total), colorize))
			fmt.Fprintln(out, renderStatusLine("Pending", statusInfo, strconv.Itoa(summary.Pending), colorize))
			fmt.Fprintln(out, renderStatusLine("Running", statusInfo, strconv.Itoa(summary.Running), colorize))
			fmt.Fprintln(out, renderStatusLine("Completed", statusOK, strconv.Itoa(summary.Completed), colorize))
			failKind := statusOK
			if summary.Failed > 0 {
				failKind = statusError
			}
			fmt.Fprintln(out, renderStatusLine("Failed", failKind, strconv.Itoa(summary.Failed), colorize))
			reviewKind := statusOK
			if summary.Review > 0 {
				reviewKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Review", reviewKind, strconv.Itoa(summary.Review), colorize))

			tasks, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(tasks))
			for _, task := range tasks {
				if !showAll && task.Status == runstate.StatusCompleted {
					continue
				}
				rows = append(rows, []string{
					displayStage(task.Stage),
					task.GroupKey,
					string(task.Status),
					task.ErrorMessage,
				})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Stage", "Group", "Status", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}

			dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
			if err != nil {
				return err
			}
			if len(dirs) > 0 {
				var total int64
				for _, dir := range dirs {
					total += dir.Size
				}
				fmt.Fprintf(out, "Staging: %d task directories, %s\n", len(dirs), formatBytes(total))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "Include completed units in the listing")
	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
