package ingest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"platepipe/internal/ingest"
	"platepipe/internal/record"
	"platepipe/internal/services"
)

func TestReadTable(t *testing.T) {
	table := strings.Join([]string{
		"path,arm,batch,plate,well,site,cycle,channels,frame_count",
		"/data/img/WellA1_PointA1_0000_ChannelDNA,painting,B1,P1,A1,1,,\"DNA,GFP\",2",
		"/data/img/WellA1_PointA1_0001_ChannelA,barcoding,B1,P1,A1,1,3,\"DNA,A,C,G,T\",5",
	}, "\n")

	records, err := ingest.ReadTable(strings.NewReader(table))
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	first := records[0]
	if first.Batch() != "B1" || first.Plate() != "P1" || first.Well() != "A1" {
		t.Fatalf("record = %v", first.Fields())
	}
	if first.Arm() != record.ArmPainting {
		t.Fatalf("arm = %q", first.Arm())
	}
	if channels := first.Channels(); len(channels) != 2 || channels[0] != "DNA" || channels[1] != "GFP" {
		t.Fatalf("channels = %v", channels)
	}
	if _, ok := first.Cycle(); ok {
		t.Fatal("painting row should have no cycle")
	}

	second := records[1]
	if cycle, ok := second.Cycle(); !ok || cycle != 3 {
		t.Fatalf("cycle = %d (ok=%v)", cycle, ok)
	}
	if frame, ok := second.FrameIndex("C"); !ok || frame != 2 {
		t.Fatalf("frame = %d (ok=%v)", frame, ok)
	}
}

func TestReadTableHeaderOrderIrrelevant(t *testing.T) {
	table := strings.Join([]string{
		"Batch,Path,Frame_Count,Arm,Well,Cycle,Channels,Site,Plate",
		"B1,/data/a.tiff,1,barcoding,A1,3,DNA,2,P9",
	}, "\n")
	records, err := ingest.ReadTable(strings.NewReader(table))
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if records[0].Plate() != "P9" || records[0].Arm() != record.ArmBarcoding {
		t.Fatalf("record = %v", records[0].Fields())
	}
}

func TestReadTableRejectsBadArm(t *testing.T) {
	table := strings.Join([]string{
		"path,arm,batch,plate,well,site,channels,frame_count",
		"/data/a.tiff,staining,B1,P1,A1,1,DNA,1",
	}, "\n")
	_, err := ingest.ReadTable(strings.NewReader(table))
	if err == nil {
		t.Fatal("expected an error for an unknown arm")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	var rowErr *ingest.RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 2 {
		t.Fatalf("error = %v, want RowError at line 2", err)
	}
}

func TestReadTableRejectsMissingColumn(t *testing.T) {
	// A path/arm/batch/plate header alone is not enough to place rows.
	_, err := ingest.ReadTable(strings.NewReader("path,arm,batch,plate\n/img/one.tiff,painting,B1,P1\n"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
	if !strings.Contains(err.Error(), `"well"`) {
		t.Fatalf("error = %v, want the missing column named", err)
	}
}

func TestReadTableRejectsMissingWell(t *testing.T) {
	table := strings.Join([]string{
		"path,arm,batch,plate,well,site,channels,frame_count",
		"/data/a.tiff,painting,B1,P1,,1,DNA,1",
	}, "\n")
	_, err := ingest.ReadTable(strings.NewReader(table))
	if err == nil {
		t.Fatal("expected an error for a row without a well")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
	var missing *record.MissingFieldError
	if !errors.As(err, &missing) || missing.Field != record.FieldWell {
		t.Fatalf("error = %v, want MissingFieldError for well", err)
	}
}

func TestReadTableRequiresCycleForBarcoding(t *testing.T) {
	table := strings.Join([]string{
		"path,arm,batch,plate,well,site,cycle,channels,frame_count",
		"/data/a.tiff,painting,B1,P1,A1,1,,DNA,1",
		"/data/b.tiff,barcoding,B1,P1,A1,1,,\"DNA,A\",2",
	}, "\n")
	_, err := ingest.ReadTable(strings.NewReader(table))
	if err == nil {
		t.Fatal("expected an error for a barcoding row without a cycle")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
	var missing *record.MissingFieldError
	if !errors.As(err, &missing) || missing.Field != record.FieldCycle {
		t.Fatalf("error = %v, want MissingFieldError for cycle", err)
	}
}

func TestReadTableRejectsFrameCountMismatch(t *testing.T) {
	table := strings.Join([]string{
		"path,arm,batch,plate,well,site,channels,frame_count",
		"/data/a.tiff,painting,B1,P1,A1,1,\"DNA,GFP\",3",
	}, "\n")
	_, err := ingest.ReadTable(strings.NewReader(table))
	var rowErr *ingest.RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 2 {
		t.Fatalf("error = %v, want RowError at line 2", err)
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	_, err := ingest.LoadTable(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatal("expected an error for a missing table")
	}
}

func TestScanCorrected(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"Plate_P1_Well_A1_Site_1_CorrDNA.tiff",
		"Plate_P1_Well_A1_Site_1_Cycle02_A.tiff",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	records, err := ingest.ScanCorrected(dir, "B1")
	if err != nil {
		t.Fatalf("ScanCorrected: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	byName := make(map[string]record.Record, len(records))
	for _, rec := range records {
		byName[rec.Name()] = rec
	}
	painting := byName["Plate_P1_Well_A1_Site_1_CorrDNA.tiff"]
	if painting.Arm() != record.ArmPainting || painting.Channel() != "DNA" || painting.Batch() != "B1" {
		t.Fatalf("painting record = %v", painting.Fields())
	}
	barcode := byName["Plate_P1_Well_A1_Site_1_Cycle02_A.tiff"]
	if barcode.Arm() != record.ArmBarcoding {
		t.Fatalf("arm = %q", barcode.Arm())
	}
	if cycle, ok := barcode.Cycle(); !ok || cycle != 2 {
		t.Fatalf("cycle = %d (ok=%v)", cycle, ok)
	}
}

func TestScanIllum(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"P1_IllumDNA.npy", "P1_Cycle01_IllumA.npy", "readme.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	records, err := ingest.ScanIllum(dir, "B1")
	if err != nil {
		t.Fatalf("ScanIllum: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for _, rec := range records {
		if rec.Plate() != "P1" || rec.Batch() != "B1" {
			t.Fatalf("record = %v", rec.Fields())
		}
	}
}

func TestSubsampleSites(t *testing.T) {
	var records []record.Record
	for site := 1; site <= 6; site++ {
		records = append(records, record.New(map[record.Field]string{
			record.FieldBatch: "B1",
			record.FieldPlate: "P1",
			record.FieldWell:  "A1",
			record.FieldSite:  strconv.Itoa(site),
		}, nil, "/data/a.tiff"))
	}

	kept := ingest.SubsampleSites(records, 3)
	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2", len(kept))
	}
	if site, _ := kept[0].Site(); site != 1 {
		t.Fatalf("first kept site = %d, want 1", site)
	}
	if site, _ := kept[1].Site(); site != 4 {
		t.Fatalf("second kept site = %d, want 4", site)
	}

	if got := ingest.SubsampleSites(records, 1); len(got) != len(records) {
		t.Fatalf("skip=1 kept %d, want all", len(got))
	}
}
