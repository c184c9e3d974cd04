package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"platepipe/internal/plan"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the task units the current configuration would produce",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, err := ctx.buildPlan(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printPlan(out, p)
			return nil
		},
	}
}

func printPlan(out io.Writer, p plan.Plan) {
	rows := make([][]string, 0, len(p.Units))
	for _, unit := range p.Units {
		rows = append(rows, []string{
			displayStage(unit.Stage.String()),
			unit.GroupKey(),
			strconv.Itoa(len(unit.Manifest.Rows)),
			strconv.Itoa(len(unit.Manifest.Columns)),
			shortChecksum(unit.Checksum),
			strconv.Itoa(len(unit.Warnings)),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Group", "Rows", "Columns", "Manifest", "Warnings"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
	))

	for _, skipped := range p.Skipped {
		arms := make([]string, 0, len(skipped.GatedBy))
		for _, arm := range skipped.GatedBy {
			arms = append(arms, string(arm))
		}
		fmt.Fprintf(out, "Skipped %s: awaiting review of %s gate\n",
			displayStage(skipped.Stage.String()), strings.Join(arms, " and "))
	}
	for _, planErr := range p.Errors {
		fmt.Fprintf(out, "Error: %v\n", planErr)
	}
}

func shortChecksum(checksum string) string {
	if len(checksum) > 12 {
		return checksum[:12]
	}
	return checksum
}
