package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"platepipe/internal/logging"
	"platepipe/internal/record"
)

func TestDirNameDeterministicAndSafe(t *testing.T) {
	name := DirName("correction-apply", "batch=B1 plate=P1 well=A1")
	if name != DirName("correction-apply", "batch=B1 plate=P1 well=A1") {
		t.Fatal("DirName should be deterministic")
	}
	if filepath.Base(name) != name {
		t.Fatalf("name %q contains a path separator", name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			t.Fatalf("name %q contains unsafe rune %q", name, r)
		}
	}
}

func TestMaterialize(t *testing.T) {
	srcDir := t.TempDir()
	imgPath := filepath.Join(srcDir, "Plate_P1_Well_A1_Site_1_CorrDNA.tiff")
	if err := os.WriteFile(imgPath, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	illumPath := filepath.Join(srcDir, "P1_IllumDNA.npy")
	if err := os.WriteFile(illumPath, []byte("npy"), 0o644); err != nil {
		t.Fatal(err)
	}

	input := record.New(map[record.Field]string{
		record.FieldBatch: "B1",
		record.FieldPlate: "P1",
		record.FieldWell:  "A1",
		record.FieldSite:  "1",
	}, nil, imgPath)
	illum := record.New(map[record.Field]string{
		record.FieldBatch: "B1",
		record.FieldPlate: "P1",
	}, nil, illumPath)

	stagingDir := t.TempDir()
	task := Task{
		Stage:    "correction-apply",
		GroupKey: "batch=B1 plate=P1 well=A1",
		Manifest: []byte("Plate,Well,Site\nP1,A1,1\n"),
		Inputs:   []record.Record{input},
		Slots:    map[string]string{input.Name(): "img1"},
		Illum:    []record.Record{illum},
	}

	dir, err := Materialize(context.Background(), stagingDir, task, logging.NewNop())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if string(data) != string(task.Manifest) {
		t.Fatalf("manifest = %q", data)
	}

	staged, err := os.ReadFile(filepath.Join(dir, "img1", input.Name()))
	if err != nil {
		t.Fatalf("read staged input: %v", err)
	}
	if string(staged) != "img" {
		t.Fatalf("staged input = %q", staged)
	}
	if _, err := os.Stat(filepath.Join(dir, "illum", illum.Name())); err != nil {
		t.Fatalf("staged illum: %v", err)
	}
}

func TestMaterializeReplacesPreviousContent(t *testing.T) {
	stagingDir := t.TempDir()
	task := Task{
		Stage:    "segmentation-check",
		GroupKey: "batch=B1 plate=P1 well=A1",
		Manifest: []byte("Plate,Well,Site\n"),
	}

	dir, err := Materialize(context.Background(), stagingDir, task, logging.NewNop())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	leftover := filepath.Join(dir, "stale.tmp")
	if err := os.WriteFile(leftover, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Materialize(context.Background(), stagingDir, task, logging.NewNop()); err != nil {
		t.Fatalf("re-materialize: %v", err)
	}
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Error("previous content should have been replaced")
	}
}

func TestMaterializeRequiresStagingDir(t *testing.T) {
	if _, err := Materialize(context.Background(), "  ", Task{Stage: "s", GroupKey: "k"}, logging.NewNop()); err == nil {
		t.Fatal("expected an error for an unset staging directory")
	}
}
