package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"platepipe/internal/config"
	"platepipe/internal/gate"
	"platepipe/internal/ingest"
	"platepipe/internal/plan"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// loadInputs assembles the plan inputs: the acquisition input table plus
// directory scans for derived artifacts from earlier runs.
func (c *commandContext) loadInputs(cfg *config.Config) (plan.Inputs, error) {
	var in plan.Inputs

	source, err := ingest.LoadTable(cfg.Paths.InputTable)
	if err != nil {
		return in, err
	}
	in.Source = source

	batch := ""
	if len(source) > 0 {
		batch = source[0].Batch()
	}

	if cfg.Paths.OutputDir != "" {
		corrected, err := ingest.ScanCorrected(cfg.Paths.OutputDir, batch)
		if err != nil {
			return in, err
		}
		in.Corrected = corrected
	}
	if cfg.Paths.IllumDir != "" {
		illum, err := ingest.ScanIllum(cfg.Paths.IllumDir, batch)
		if err != nil {
			return in, err
		}
		in.Illum = illum
	}
	return in, nil
}

// buildPlan runs ingestion and plan assembly under the configured gates.
func (c *commandContext) buildPlan(cfg *config.Config) (plan.Plan, error) {
	in, err := c.loadInputs(cfg)
	if err != nil {
		return plan.Plan{}, err
	}
	return plan.Build(cfg, gate.FromConfig(cfg.Gates), in), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
