package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"platepipe/internal/config"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	cfg        config.Config
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := config.Default()
	cfg.Paths.InputTable = filepath.Join(base, "input.csv")
	cfg.Paths.ImagesDir = filepath.Join(base, "images")
	cfg.Paths.IllumDir = filepath.Join(base, "illum")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")

	configPath := filepath.Join(base, "platepipe.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{baseDir: base, configPath: configPath, cfg: cfg}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = []string{"--config", configPath}
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
input_table = %q
images_dir = %q
illum_dir = %q
staging_dir = %q
output_dir = %q
log_dir = %q
state_dir = %q

[channels]
painting = ["DNA", "GFP"]
barcoding = ["A", "C", "DNA", "G", "T"]
cycles = 2

[gates]
painting_committed = %t
barcoding_committed = %t
`,
		cfg.Paths.InputTable,
		cfg.Paths.ImagesDir,
		cfg.Paths.IllumDir,
		cfg.Paths.StagingDir,
		cfg.Paths.OutputDir,
		cfg.Paths.LogDir,
		cfg.Paths.StateDir,
		cfg.Gates.PaintingCommitted,
		cfg.Gates.BarcodingCommitted,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
