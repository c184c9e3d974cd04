package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"platepipe/internal/staging"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render every planned manifest to disk without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, err := ctx.buildPlan(cfg)
			if err != nil {
				return err
			}

			target := outDir
			if target == "" {
				target = filepath.Join(cfg.Paths.OutputDir, "manifests")
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create manifest directory %q: %w", target, err)
			}

			out := cmd.OutOrStdout()
			for _, unit := range p.Units {
				name := staging.DirName(unit.Stage.String(), unit.GroupKey()) + ".csv"
				path := filepath.Join(target, name)
				if err := os.WriteFile(path, unit.Manifest.Render(), 0o644); err != nil {
					return fmt.Errorf("write manifest %q: %w", path, err)
				}
				fmt.Fprintln(out, path)
				for _, warning := range unit.Warnings {
					fmt.Fprintf(out, "  warning: %s\n", warning)
				}
			}
			for _, planErr := range p.Errors {
				fmt.Fprintf(out, "Error: %v\n", planErr)
			}
			fmt.Fprintf(out, "Wrote %d manifests to %s\n", len(p.Units), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for rendered manifests (default: <output_dir>/manifests)")
	return cmd
}
