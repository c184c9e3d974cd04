package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"platepipe/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBinary(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	if result := CheckBinary("Present", present); !result.Passed {
		t.Fatalf("expected pass for stub binary, got: %s", result.Detail)
	}
	if result := CheckBinary("Missing", "clearly-not-present-binary"); result.Passed {
		t.Fatal("expected failure for missing binary")
	}
	if result := CheckBinary("Empty", "  "); result.Passed || result.Detail != "command not configured" {
		t.Fatalf("expected unconfigured detail, got %#v", result)
	}
}

func TestCheckPipelineFile(t *testing.T) {
	dir := t.TempDir()
	path := PipelinePath(dir, "segmentation-check")
	if result := CheckPipelineFile("Pipeline", path); result.Passed {
		t.Fatal("expected failure for missing pipeline file")
	}
	if err := os.WriteFile(path, []byte("CellProfiler Pipeline: File\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckPipelineFile("Pipeline", path); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil, nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAllAndFailed(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Tools.PipelineDir = filepath.Join(base, "pipelines")
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Tools.PipelineDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	stub := filepath.Join(base, "cellprofiler")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg.Tools.CellProfilerBinary = stub

	if err := os.WriteFile(PipelinePath(cfg.Tools.PipelineDir, "correction-calc"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	results := RunAll(&cfg, []string{"correction-calc", "correction-apply"})
	failed := Failed(results)
	if len(failed) != 1 {
		t.Fatalf("expected exactly the missing pipeline to fail, got %#v", failed)
	}
	if failed[0].Name != "Pipeline correction-apply" {
		t.Fatalf("unexpected failed check: %s", failed[0].Name)
	}
}
