package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"platepipe/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "platepipe", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Gates.PaintingCommitted || cfg.Gates.BarcodingCommitted {
		t.Fatal("expected both gates uncommitted by default")
	}
	if cfg.Tools.CellProfilerBinary != "cellprofiler" {
		t.Fatalf("unexpected tool binary: %q", cfg.Tools.CellProfilerBinary)
	}
	if cfg.Workflow.Workers != 4 {
		t.Fatalf("unexpected worker default: %d", cfg.Workflow.Workers)
	}
	if got := cfg.Channels.Painting; len(got) == 0 || got[0] != "DNA" {
		t.Fatalf("unexpected painting channels: %v", got)
	}
}

func TestLoadParsesGatesAndChannels(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "platepipe.toml")
	content := strings.TrimSpace(`
[channels]
painting = ["DNA", "GFP"]
barcoding = ["DNA", "A", "C", "G", "T"]
cycles = 8

[gates]
painting_committed = true
`)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if !cfg.Gates.PaintingCommitted {
		t.Fatal("expected painting gate committed")
	}
	if cfg.Gates.BarcodingCommitted {
		t.Fatal("expected barcoding gate uncommitted")
	}
	if cfg.Channels.Cycles != 8 {
		t.Fatalf("unexpected cycles: %d", cfg.Channels.Cycles)
	}
	if len(cfg.Channels.Painting) != 2 || cfg.Channels.Painting[1] != "GFP" {
		t.Fatalf("unexpected painting channels: %v", cfg.Channels.Painting)
	}
}

func TestLoadNormalizesNotifications(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "platepipe.toml")
	content := strings.TrimSpace(`
[notifications]
ntfy_topic = "  plate-runs  "
request_timeout_seconds = 0
`)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "plate-runs" {
		t.Fatalf("unexpected topic: %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Notifications.RequestTimeoutSeconds != 10 {
		t.Fatalf("unexpected timeout: %d", cfg.Notifications.RequestTimeoutSeconds)
	}
}

func TestValidateRejectsDuplicateChannels(t *testing.T) {
	cfg := config.Default()
	cfg.Channels.Painting = []string{"DNA", "DNA"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected duplicate channel error")
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected log format error")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected overwrite refusal")
	}
}
