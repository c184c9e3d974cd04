// Package preflight provides readiness checks for the filesystem paths and
// external tooling a run depends on.
//
// The run command calls RunAll after planning and before any task unit
// executes. If a required check fails the run aborts immediately instead of
// burning tool time on work that cannot finish. Checks cover workspace
// directories, the external tool binary, and the pipeline file of every
// stage the plan will invoke.
package preflight
