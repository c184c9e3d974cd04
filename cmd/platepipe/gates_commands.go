package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"platepipe/internal/gate"
	"platepipe/internal/record"
	"platepipe/internal/stage"
)

func newGatesCommand(ctx *commandContext) *cobra.Command {
	gatesCmd := &cobra.Command{
		Use:   "gates",
		Short: "Inspect and commit the per-arm quality gates",
	}
	gatesCmd.AddCommand(newGatesShowCommand(ctx))
	gatesCmd.AddCommand(newGatesCommitCommand(ctx))
	return gatesCmd
}

func newGatesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show gate states and the stages each one blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			gates := gate.FromConfig(cfg.Gates)

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, 2)
			for _, arm := range []record.Arm{record.ArmPainting, record.ArmBarcoding} {
				blocked := ""
				for _, s := range stage.All() {
					spec := stage.SpecFor(s, cfg.Channels.Cycles)
					if gates.Allows(spec) {
						continue
					}
					for _, gatedArm := range spec.GatedBy {
						if gatedArm == arm {
							if blocked != "" {
								blocked += ", "
							}
							blocked += displayStage(s.String())
							break
						}
					}
				}
				rows = append(rows, []string{
					string(arm),
					string(gates.StateOf(arm)),
					blocked,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Arm", "Gate", "Blocked Stages"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newGatesCommitCommand(ctx *commandContext) *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "commit <painting|barcoding>",
		Short: "Commit an arm's gate after review, enabling its downstream stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arm, err := record.ParseArm(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if ctx.configPath == "" {
				return fmt.Errorf("no configuration file to update; run 'platepipe config init' first")
			}

			switch arm {
			case record.ArmPainting:
				cfg.Gates.PaintingCommitted = !revoke
			case record.ArmBarcoding:
				cfg.Gates.BarcodingCommitted = !revoke
			}

			encoded, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}
			if err := os.WriteFile(ctx.configPath, encoded, 0o644); err != nil {
				return fmt.Errorf("write configuration: %w", err)
			}

			state := "committed"
			if revoke {
				state = "awaiting review"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Gate for %s arm is now %s (%s)\n", arm, state, ctx.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "Return the gate to awaiting review")
	return cmd
}
