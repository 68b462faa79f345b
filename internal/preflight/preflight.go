package preflight

import (
	"context"

	"clientdedup/internal/config"
)

// Result reports the outcome of a single preflight check. Optional checks
// that fail degrade the run instead of stopping it.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check for cfg in a stable order.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir, readAccess),
		CheckClientFile(ctx, cfg.ClientPath()),
		optional(CheckReadable("Enrollment file", cfg.EnrollmentPath())),
		optional(CheckReadable("Exit file", cfg.ExitPath())),
		CheckWritableTarget("Output directory", cfg.Paths.OutputDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckWritableTarget("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}

func optional(r Result) Result {
	r.Optional = true
	return r
}
