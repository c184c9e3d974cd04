// Package runstate persists per-unit execution state in SQLite. The ledger
// is keyed by (stage, group key); the stored manifest checksum lets a re-run
// skip units whose inputs have not changed, so flipping a gate executes only
// the newly enabled work.
package runstate
