// Package stage enumerates the pipeline's processing stages and the
// grouping/join/gating contract each one carries.
package stage

import (
	"fmt"

	"platepipe/internal/record"
	"platepipe/internal/services"
)

// Stage is the closed enumeration of manifest-producing pipeline stages.
type Stage int

const (
	CorrectionCalc Stage = iota
	CorrectionApply
	SegmentationCheck
	BarcodePreprocess
	CombinedAnalysis
)

var all = []Stage{CorrectionCalc, CorrectionApply, SegmentationCheck, BarcodePreprocess, CombinedAnalysis}

// All returns every stage in pipeline order.
func All() []Stage {
	return append([]Stage{}, all...)
}

func (s Stage) String() string {
	switch s {
	case CorrectionCalc:
		return "correction-calc"
	case CorrectionApply:
		return "correction-apply"
	case SegmentationCheck:
		return "segmentation-check"
	case BarcodePreprocess:
		return "barcode-preprocess"
	case CombinedAnalysis:
		return "combined-analysis"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Parse maps a stage name back to its enum value.
func Parse(name string) (Stage, error) {
	for _, s := range all {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown stage %q", services.ErrValidation, name)
}

// Spec describes how a stage's task units are built: the composite key its
// groups partition on, the coarser key it joins against (if any), the arms
// whose gates must be committed before any group is materialized, and how
// its tool invocation declares outputs.
type Spec struct {
	Stage      Stage
	GroupBy    []record.Field
	JoinOn     []record.Field
	GatedBy    []record.Arm
	CycleAware bool
	OutputGlob string
}

// SpecFor returns the stage's contract. cycles is the configured barcoding
// cycle count; it decides whether cycle-aware stages cross-product their
// channel columns.
func SpecFor(s Stage, cycles int) Spec {
	switch s {
	case CorrectionCalc:
		return Spec{
			Stage:      s,
			GroupBy:    []record.Field{record.FieldBatch, record.FieldPlate},
			CycleAware: cycles > 0,
			OutputGlob: "*_Illum*.npy",
		}
	case CorrectionApply:
		return Spec{
			Stage:      s,
			GroupBy:    []record.Field{record.FieldBatch, record.FieldPlate, record.FieldWell},
			JoinOn:     []record.Field{record.FieldBatch, record.FieldPlate},
			CycleAware: cycles > 0,
			OutputGlob: "Plate_*_Well_*_Site_*.tiff",
		}
	case SegmentationCheck:
		return Spec{
			Stage:      s,
			GroupBy:    []record.Field{record.FieldBatch, record.FieldPlate, record.FieldWell},
			GatedBy:    []record.Arm{record.ArmPainting},
			OutputGlob: "*.csv",
		}
	case BarcodePreprocess:
		return Spec{
			Stage:      s,
			GroupBy:    []record.Field{record.FieldBatch, record.FieldPlate, record.FieldWell},
			GatedBy:    []record.Arm{record.ArmBarcoding},
			CycleAware: cycles > 0,
			OutputGlob: "*.csv",
		}
	case CombinedAnalysis:
		return Spec{
			Stage:      s,
			GroupBy:    []record.Field{record.FieldBatch, record.FieldPlate, record.FieldWell},
			GatedBy:    []record.Arm{record.ArmPainting, record.ArmBarcoding},
			CycleAware: cycles > 0,
			OutputGlob: "*.csv",
		}
	default:
		return Spec{Stage: s}
	}
}
