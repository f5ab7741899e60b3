package preflight

import (
	"context"

	"cdfinder/internal/catalog/source"
	"cdfinder/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// RunAll executes every check for cfg. store may be nil, in which case the
// catalog check reports the store as unavailable.
func RunAll(ctx context.Context, cfg *config.Config, store source.Store) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckCatalog(ctx, store),
		CheckAI(cfg),
		CheckCaptureCommand(cfg.Capture.Command),
	}
}

// Failed reports whether any non-skipped check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			return true
		}
	}
	return false
}
