package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"platepipe/internal/invoker"
	"platepipe/internal/logging"
	"platepipe/internal/plan"
	"platepipe/internal/preflight"
	"platepipe/internal/runner"
	"platepipe/internal/runstate"
)

// planStageNames returns the distinct stage names of the plan's units in
// first-appearance order.
func planStageNames(p plan.Plan) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, unit := range p.Units {
		name := unit.Stage.String()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute every pending task unit in the current plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			p, err := ctx.buildPlan(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			checks := preflight.RunAll(cfg, planStageNames(p))
			if failed := preflight.Failed(checks); len(failed) > 0 {
				for _, line := range renderSectionHeader("Preflight", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, check := range failed {
					fmt.Fprintln(out, renderStatusLine(check.Name, statusError, check.Detail, colorize))
				}
				return fmt.Errorf("%d preflight checks failed", len(failed))
			}

			store, err := runstate.Open(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			client := invoker.NewCLI(
				invoker.WithBinary(cfg.Tools.CellProfilerBinary),
				invoker.WithTimeout(time.Duration(cfg.Tools.TimeoutSeconds)*time.Second),
			)
			r, err := runner.New(cfg, store, client, logger)
			if err != nil {
				return err
			}

			result, err := r.Execute(cmd.Context(), p)
			if err != nil {
				return err
			}

			for _, line := range renderSectionHeader("Run Summary", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Completed", statusOK, strconv.Itoa(result.Completed), colorize))
			fmt.Fprintln(out, renderStatusLine("Skipped", statusInfo, strconv.Itoa(result.Skipped), colorize))
			failKind := statusOK
			if result.Failed > 0 {
				failKind = statusError
			}
			fmt.Fprintln(out, renderStatusLine("Failed", failKind, strconv.Itoa(result.Failed), colorize))
			reviewKind := statusOK
			if result.Review > 0 {
				reviewKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Review", reviewKind, strconv.Itoa(result.Review), colorize))
			for _, runErr := range result.Errors {
				fmt.Fprintf(out, "  %v\n", runErr)
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d task units failed", result.Failed)
			}
			return nil
		},
	}
}
