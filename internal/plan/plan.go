// Package plan assembles one run's task units: gate pruning, per-stage
// grouping, cross-stage joins, and manifest generation. Building a plan
// touches no files and launches nothing; it is a pure function of the
// ingested records and the run configuration.
package plan

import (
	"fmt"

	"platepipe/internal/config"
	"platepipe/internal/gate"
	"platepipe/internal/grouping"
	"platepipe/internal/ingest"
	"platepipe/internal/join"
	"platepipe/internal/manifest"
	"platepipe/internal/record"
	"platepipe/internal/stage"
)

// Inputs carries the record sets a plan is built from.
type Inputs struct {
	// Source are the acquired images named by the input table.
	Source []record.Record
	// Corrected are derived corrected images, typically from a directory
	// scan of earlier output.
	Corrected []record.Record
	// Illum are the correction artifacts joined into apply-stage groups.
	Illum []record.Record
}

// Unit is one schedulable task: a joined group plus its rendered manifest.
type Unit struct {
	Stage    stage.Stage
	Spec     stage.Spec
	Group    join.JoinedGroup
	Manifest manifest.Manifest
	Checksum string
	Slots    map[string]string
	Warnings []manifest.Warning
}

// GroupKey is the unit's canonical group identity, stable across runs.
func (u Unit) GroupKey() string { return u.Group.Key.String() }

// ID identifies the unit within a run state ledger.
func (u Unit) ID() string { return u.Stage.String() + " " + u.GroupKey() }

// Skipped records a stage excluded at plan time because a gate it depends on
// is still awaiting review.
type Skipped struct {
	Stage   stage.Stage
	GatedBy []record.Arm
}

// Plan is the complete set of task units for one run. Errors collects
// per-group failures; a failed group never removes its siblings.
type Plan struct {
	Units   []Unit
	Skipped []Skipped
	Errors  []error
}

// Build assembles the plan. Gate pruning happens before any grouping, so a
// closed gate costs nothing and leaves no trace beyond the Skipped entry.
func Build(cfg *config.Config, gates gate.Gates, in Inputs) Plan {
	var p Plan
	for _, s := range stage.All() {
		spec := stage.SpecFor(s, cfg.Channels.Cycles)
		if !gates.Allows(spec) {
			p.Skipped = append(p.Skipped, Skipped{Stage: s, GatedBy: spec.GatedBy})
			continue
		}
		buildStage(&p, cfg, spec, in)
	}
	return p
}

func buildStage(p *Plan, cfg *config.Config, spec stage.Spec, in Inputs) {
	switch spec.Stage {
	case stage.CorrectionCalc, stage.CorrectionApply:
		// Source images are processed per arm so each unit's channel
		// columns stay within one arm's canonical list.
		buildArm(p, cfg, spec, recordsForArm(in.Source, record.ArmPainting), in.Illum, cfg.Channels.Painting)
		buildArm(p, cfg, spec, recordsForArm(in.Source, record.ArmBarcoding), in.Illum, cfg.Channels.Barcoding)
	case stage.SegmentationCheck:
		records := recordsForArm(in.Corrected, record.ArmPainting)
		records = ingest.SubsampleSites(records, cfg.Workflow.SiteSkip)
		buildArm(p, cfg, spec, records, nil, cfg.Channels.Painting)
	case stage.BarcodePreprocess:
		buildArm(p, cfg, spec, recordsForArm(in.Corrected, record.ArmBarcoding), nil, cfg.Channels.Barcoding)
	case stage.CombinedAnalysis:
		buildArm(p, cfg, spec, in.Corrected, nil, cfg.Channels.Painting)
	}
}

func buildArm(p *Plan, cfg *config.Config, spec stage.Spec, records, illum []record.Record, channels []string) {
	if len(records) == 0 {
		return
	}

	groups, errs := grouping.GroupBy(records, spec.GroupBy)
	for _, err := range errs {
		p.Errors = append(p.Errors, fmt.Errorf("%s: %w", spec.Stage, err))
	}

	var joined []join.JoinedGroup
	if len(spec.JoinOn) > 0 {
		coarse, coarseErrs := grouping.GroupBy(illum, spec.JoinOn)
		for _, err := range coarseErrs {
			p.Errors = append(p.Errors, fmt.Errorf("%s: %w", spec.Stage, err))
		}
		var joinErrs []error
		joined, joinErrs = join.AttachAll(groups, spec.JoinOn, coarse)
		for _, err := range joinErrs {
			p.Errors = append(p.Errors, fmt.Errorf("%s: %w", spec.Stage, err))
		}
	} else {
		for _, group := range groups {
			joined = append(joined, join.Solo(group))
		}
	}

	for _, jg := range joined {
		opts := manifest.Options{Channels: channels, Slots: manifest.AssignSlots(jg.Members)}
		if spec.Stage == stage.CombinedAnalysis {
			opts.BarcodeChannels = cfg.Channels.Barcoding
		}
		m, warnings, err := manifest.Generate(jg, spec, opts)
		if err != nil {
			p.Errors = append(p.Errors, fmt.Errorf("%s: %w", spec.Stage, err))
			continue
		}
		p.Units = append(p.Units, Unit{
			Stage:    spec.Stage,
			Spec:     spec,
			Group:    jg,
			Manifest: m,
			Checksum: m.Checksum(),
			Slots:    opts.Slots,
			Warnings: warnings,
		})
	}
}

func recordsForArm(records []record.Record, arm record.Arm) []record.Record {
	var kept []record.Record
	for _, rec := range records {
		if rec.Arm() == arm {
			kept = append(kept, rec)
		}
	}
	return kept
}
