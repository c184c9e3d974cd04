// Package gate implements the configuration-time quality gates that decide
// whether a downstream stage's work is ever constructed.
//
// Each processing arm carries one flag with a one-directional state machine
// (awaiting review, then committed) read once from run configuration. Gate
// decisions are pure functions of configuration, never of execution history,
// so re-running after a flag flips plans exactly the groups that would have
// existed had the flag been true from the start.
package gate

import (
	"platepipe/internal/config"
	"platepipe/internal/record"
	"platepipe/internal/stage"
)

// State is the review state of one arm's gate.
type State string

const (
	AwaitingReview State = "awaiting-review"
	Committed      State = "committed"
)

// Gates holds the per-arm review decisions for one run.
type Gates struct {
	painting  State
	barcoding State
}

// FromConfig reads both gate flags from run configuration.
func FromConfig(cfg config.Gates) Gates {
	return Gates{
		painting:  stateFor(cfg.PaintingCommitted),
		barcoding: stateFor(cfg.BarcodingCommitted),
	}
}

func stateFor(committed bool) State {
	if committed {
		return Committed
	}
	return AwaitingReview
}

// StateOf returns the gate state for one arm.
func (g Gates) StateOf(arm record.Arm) State {
	switch arm {
	case record.ArmPainting:
		return g.painting
	case record.ArmBarcoding:
		return g.barcoding
	default:
		return AwaitingReview
	}
}

// Allows reports whether every arm the stage depends on is committed. Stages
// with no gate dependencies are always allowed. The caller must consult this
// before constructing any group for the stage.
func (g Gates) Allows(spec stage.Spec) bool {
	for _, arm := range spec.GatedBy {
		if g.StateOf(arm) != Committed {
			return false
		}
	}
	return true
}
