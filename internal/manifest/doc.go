// Package manifest renders a joined group into the tabular task description
// consumed by one external tool invocation.
//
// The column schema is stage-specific: base Plate/Well/Site columns plus
// role-qualified channel columns (Original, Frame, Illum, Corrected), crossed
// with the group's sorted cycle values for cycle-aware stages. Channel and
// cycle values resolve from record metadata first, falling back to a fixed
// set of filename patterns; the two resolutions must agree whenever both are
// available. Rendering is a pure function of the joined group, so the same
// group always yields byte-identical output.
package manifest
