// Package staging materializes task directories for external tool runs and
// reclaims abandoned ones. Each task gets its own directory under the
// staging root containing the rendered manifest and per-slot links to the
// input images.
package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"platepipe/internal/fileutil"
	"platepipe/internal/logging"
	"platepipe/internal/record"
)

// ManifestFileName is the manifest filename inside every task directory.
const ManifestFileName = "load_data.csv"

// illumSubdir holds links to correction artifacts, which are referenced by
// bare filename in manifest cells.
const illumSubdir = "illum"

// Task describes what one staging directory must contain.
type Task struct {
	Stage    string
	GroupKey string
	// Manifest is the rendered manifest written as ManifestFileName.
	Manifest []byte
	// Inputs are linked under their slot subdirectories.
	Inputs []record.Record
	// Slots maps input filenames to slot directory names.
	Slots map[string]string
	// Illum artifacts are linked under the illum subdirectory.
	Illum []record.Record
}

var unsafeDirChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DirName derives the task's staging directory name from its identity. The
// mapping is deterministic so re-runs land in the same directory.
func DirName(stageName, groupKey string) string {
	name := stageName + "_" + groupKey
	name = strings.ReplaceAll(name, "=", "-")
	return unsafeDirChars.ReplaceAllString(name, "_")
}

// Materialize builds the task directory, replacing any previous content, and
// returns its path. Inputs are symlinked where possible and copied when the
// filesystem refuses links.
func Materialize(ctx context.Context, stagingDir string, task Task, logger *slog.Logger) (string, error) {
	if strings.TrimSpace(stagingDir) == "" {
		return "", fmt.Errorf("staging directory not configured")
	}

	dir := filepath.Join(stagingDir, DirName(task.Stage, task.GroupKey))
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("reset task directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create task directory %s: %w", dir, err)
	}

	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), task.Manifest, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	for _, input := range task.Inputs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		slot := task.Slots[input.Name()]
		target := dir
		if slot != "" {
			target = filepath.Join(dir, slot)
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", fmt.Errorf("create slot directory %s: %w", target, err)
			}
		}
		if err := linkOrCopy(input.Path(), filepath.Join(target, input.Name())); err != nil {
			return "", fmt.Errorf("stage input %s: %w", input.Name(), err)
		}
	}

	if len(task.Illum) > 0 {
		illumDir := filepath.Join(dir, illumSubdir)
		if err := os.MkdirAll(illumDir, 0o755); err != nil {
			return "", fmt.Errorf("create illum directory %s: %w", illumDir, err)
		}
		for _, artifact := range task.Illum {
			if err := linkOrCopy(artifact.Path(), filepath.Join(illumDir, artifact.Name())); err != nil {
				return "", fmt.Errorf("stage correction artifact %s: %w", artifact.Name(), err)
			}
		}
	}

	if logger != nil {
		logger.Info("materialized task directory",
			logging.String("path", dir),
			logging.String(logging.FieldStage, task.Stage),
			logging.String(logging.FieldGroup, task.GroupKey),
			logging.Int("inputs", len(task.Inputs)),
			logging.String(logging.FieldEventType, "staging_materialized"),
		)
	}
	return dir, nil
}

func linkOrCopy(src, dst string) error {
	if err := os.Symlink(src, dst); err == nil {
		return nil
	}
	return fileutil.CopyFileVerified(src, dst)
}
