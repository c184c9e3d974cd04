package stage_test

import (
	"testing"

	"platepipe/internal/record"
	"platepipe/internal/stage"
)

func TestParseRoundTrip(t *testing.T) {
	for _, s := range stage.All() {
		parsed, err := stage.Parse(s.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", s.String(), err)
		}
		if parsed != s {
			t.Fatalf("round trip mismatch: %v != %v", parsed, s)
		}
	}
	if _, err := stage.Parse("stitching"); err == nil {
		t.Fatal("expected unknown stage error")
	}
}

func TestSpecGating(t *testing.T) {
	if len(stage.SpecFor(stage.CorrectionCalc, 0).GatedBy) != 0 {
		t.Fatal("correction-calc must not be gated")
	}
	if got := stage.SpecFor(stage.SegmentationCheck, 0).GatedBy; len(got) != 1 || got[0] != record.ArmPainting {
		t.Fatalf("segmentation-check gating: %v", got)
	}
	if got := stage.SpecFor(stage.CombinedAnalysis, 0).GatedBy; len(got) != 2 {
		t.Fatalf("combined-analysis must need both arms, got %v", got)
	}
}

func TestSpecCycleAwareness(t *testing.T) {
	if stage.SpecFor(stage.CorrectionApply, 0).CycleAware {
		t.Fatal("no cycles configured, apply must not be cycle aware")
	}
	if !stage.SpecFor(stage.CorrectionApply, 8).CycleAware {
		t.Fatal("apply must be cycle aware with cycles configured")
	}
	if !stage.SpecFor(stage.CorrectionApply, 8).CycleAware || stage.SpecFor(stage.SegmentationCheck, 8).CycleAware {
		t.Fatal("segmentation-check is never cycle aware")
	}
}

func TestSpecJoinContract(t *testing.T) {
	spec := stage.SpecFor(stage.CorrectionApply, 0)
	if len(spec.JoinOn) != 2 {
		t.Fatalf("correction-apply joins on batch+plate, got %v", spec.JoinOn)
	}
	if len(stage.SpecFor(stage.CorrectionCalc, 0).JoinOn) != 0 {
		t.Fatal("correction-calc has no join source")
	}
}
