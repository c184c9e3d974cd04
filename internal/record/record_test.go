package record_test

import (
	"errors"
	"testing"

	"platepipe/internal/record"
	"platepipe/internal/services"
)

func sample() record.Record {
	return record.New(map[record.Field]string{
		record.FieldBatch: "B1",
		record.FieldPlate: "P1",
		record.FieldWell:  "A1",
		record.FieldSite:  "2",
		record.FieldArm:   "painting",
	}, []string{"DNA", "Phalloidin", "CHN2"}, "/images/WellA1_PointA1_0002_ChannelDNA,Phalloidin,CHN2_Seq0002.ome.tiff")
}

func TestAccessors(t *testing.T) {
	r := sample()
	if r.Batch() != "B1" || r.Plate() != "P1" || r.Well() != "A1" {
		t.Fatalf("unexpected identifiers: %s %s %s", r.Batch(), r.Plate(), r.Well())
	}
	site, ok := r.Site()
	if !ok || site != 2 {
		t.Fatalf("unexpected site: %d %v", site, ok)
	}
	if _, ok := r.Cycle(); ok {
		t.Fatal("expected no cycle")
	}
	if r.Arm() != record.ArmPainting {
		t.Fatalf("unexpected arm: %q", r.Arm())
	}
	if r.Name() != "WellA1_PointA1_0002_ChannelDNA,Phalloidin,CHN2_Seq0002.ome.tiff" {
		t.Fatalf("unexpected name: %q", r.Name())
	}
}

func TestWithDerivesWithoutMutating(t *testing.T) {
	orig := sample()
	derived := orig.With(record.FieldChannel, "DNA").With(record.FieldCycle, "3")

	if orig.Channel() != "" {
		t.Fatalf("original mutated: channel %q", orig.Channel())
	}
	if derived.Channel() != "DNA" {
		t.Fatalf("derived channel: %q", derived.Channel())
	}
	cycle, ok := derived.Cycle()
	if !ok || cycle != 3 {
		t.Fatalf("derived cycle: %d %v", cycle, ok)
	}

	channels := orig.Channels()
	channels[0] = "mutated"
	if orig.Channels()[0] != "DNA" {
		t.Fatal("Channels() must return a copy")
	}
}

func TestFrameIndexUsesRecordOwnChannelOrder(t *testing.T) {
	// An image carrying a different subset/order than the canonical list.
	r := record.New(map[record.Field]string{record.FieldPlate: "P1"},
		[]string{"Phalloidin", "DNA"}, "/images/a.tiff")

	idx, ok := r.FrameIndex("DNA")
	if !ok || idx != 1 {
		t.Fatalf("frame for DNA: got %d %v, want 1", idx, ok)
	}
	idx, ok = r.FrameIndex("Phalloidin")
	if !ok || idx != 0 {
		t.Fatalf("frame for Phalloidin: got %d %v, want 0", idx, ok)
	}
	if _, ok := r.FrameIndex("GFP"); ok {
		t.Fatal("expected missing channel to report false")
	}
}

func TestSchemaValidate(t *testing.T) {
	schema := record.Schema{Required: []record.Field{record.FieldBatch, record.FieldPlate, record.FieldWell}}
	if err := schema.Validate(sample()); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	incomplete := record.New(map[record.Field]string{record.FieldBatch: "B1"}, nil, "/images/x.tiff")
	err := schema.Validate(incomplete)
	if err == nil {
		t.Fatal("expected missing field error")
	}
	var missing *record.MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %T", err)
	}
	if missing.Field != record.FieldPlate {
		t.Fatalf("unexpected field: %q", missing.Field)
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatal("expected configuration classification")
	}
}

func TestParseArm(t *testing.T) {
	if arm, err := record.ParseArm(" Painting "); err != nil || arm != record.ArmPainting {
		t.Fatalf("ParseArm painting: %v %v", arm, err)
	}
	if _, err := record.ParseArm("stitching"); err == nil {
		t.Fatal("expected unknown arm error")
	}
}

func TestSplitChannelList(t *testing.T) {
	got := record.SplitChannelList(" DNA, Phalloidin ,,CHN2 ")
	want := []string{"DNA", "Phalloidin", "CHN2"}
	if len(got) != len(want) {
		t.Fatalf("unexpected channels: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("channel %d: got %q want %q", i, got[i], want[i])
		}
	}
}
