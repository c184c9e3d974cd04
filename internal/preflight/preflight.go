package preflight

import (
	"platepipe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for the given config. stageNames
// lists the stages the current plan will invoke; each one's pipeline file is
// checked. Directories the pipeline only reads from are checked when
// configured.
func RunAll(cfg *config.Config, stageNames []string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	results = append(results, CheckBinary("CellProfiler", cfg.Tools.CellProfilerBinary))

	for _, name := range stageNames {
		results = append(results, CheckPipelineFile("Pipeline "+name, PipelinePath(cfg.Tools.PipelineDir, name)))
	}

	return results
}

// Failed filters the results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
