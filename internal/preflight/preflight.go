package preflight

import (
	"context"
	"path/filepath"

	"cutline/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks an export depends on. outputPath may
// be empty when no export target is known yet (status command).
func RunAll(ctx context.Context, cfg *config.Config, outputPath string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
		CheckFreeSpace("Temp free space", cfg.Paths.TempDir, cfg.Export.MinFreeGiB),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if outputPath != "" {
		results = append(results, CheckDirectoryAccess("Output directory", filepath.Dir(outputPath)))
	}
	if ctx.Err() != nil {
		results = append(results, Result{Name: "Context", Detail: ctx.Err().Error()})
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
