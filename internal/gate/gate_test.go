package gate_test

import (
	"testing"

	"platepipe/internal/config"
	"platepipe/internal/gate"
	"platepipe/internal/record"
	"platepipe/internal/stage"
)

func TestStateOf(t *testing.T) {
	gates := gate.FromConfig(config.Gates{PaintingCommitted: true})
	if gates.StateOf(record.ArmPainting) != gate.Committed {
		t.Fatal("painting gate should be committed")
	}
	if gates.StateOf(record.ArmBarcoding) != gate.AwaitingReview {
		t.Fatal("barcoding gate should be awaiting review")
	}
}

func TestGateIndependence(t *testing.T) {
	// Only arm2 (barcoding) committed.
	gates := gate.FromConfig(config.Gates{BarcodingCommitted: true})

	if gates.Allows(stage.SpecFor(stage.SegmentationCheck, 0)) {
		t.Fatal("painting-gated stage must not be allowed")
	}
	if !gates.Allows(stage.SpecFor(stage.BarcodePreprocess, 0)) {
		t.Fatal("barcoding-gated stage must be allowed")
	}
	if gates.Allows(stage.SpecFor(stage.CombinedAnalysis, 0)) {
		t.Fatal("combined stage needs both gates")
	}

	both := gate.FromConfig(config.Gates{PaintingCommitted: true, BarcodingCommitted: true})
	if !both.Allows(stage.SpecFor(stage.CombinedAnalysis, 0)) {
		t.Fatal("combined stage must be allowed with both gates committed")
	}
}

func TestUngatedStagesAlwaysAllowed(t *testing.T) {
	gates := gate.FromConfig(config.Gates{})
	if !gates.Allows(stage.SpecFor(stage.CorrectionCalc, 0)) {
		t.Fatal("correction-calc must always be allowed")
	}
	if !gates.Allows(stage.SpecFor(stage.CorrectionApply, 0)) {
		t.Fatal("correction-apply must always be allowed")
	}
}
