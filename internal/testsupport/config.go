package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"platepipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputTable = filepath.Join(base, "input.csv")
	cfgVal.Paths.ImagesDir = filepath.Join(base, "images")
	cfgVal.Paths.IllumDir = filepath.Join(base, "illum")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Tools.PipelineDir = filepath.Join(base, "pipelines")
	cfgVal.Channels.Painting = []string{"DNA", "GFP"}
	cfgVal.Channels.Barcoding = []string{"A", "C", "DNA", "G", "T"}
	cfgVal.Workflow.Workers = 2

	for _, dir := range []string{
		cfgVal.Paths.ImagesDir,
		cfgVal.Paths.IllumDir,
		cfgVal.Paths.StagingDir,
		cfgVal.Paths.OutputDir,
		cfgVal.Paths.LogDir,
		cfgVal.Paths.StateDir,
		cfgVal.Tools.PipelineDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithChannels overrides the canonical channel lists and cycle count.
func WithChannels(painting, barcoding []string, cycles int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Channels.Painting = painting
		b.cfg.Channels.Barcoding = barcoding
		b.cfg.Channels.Cycles = cycles
	}
}

// WithGates sets both gate flags on the test config.
func WithGates(painting, barcoding bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gates.PaintingCommitted = painting
		b.cfg.Gates.BarcodingCommitted = barcoding
	}
}

// WithStubbedTool writes a stub executable and points the tool binary at it.
func WithStubbedTool() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "cellprofiler")
		if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			b.t.Fatalf("write stub %s: %v", target, err)
		}
		b.cfg.Tools.CellProfilerBinary = target
	}
}
