package preflight

import (
	"context"

	"radiograb/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Fatal marks checks whose failure must stop a run.
	Fatal bool
}

// RunAll executes the filesystem and catalog checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		fatal(CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir)),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckCatalog(ctx, cfg.Catalog.BaseURL),
	}
	return results
}

// FirstFatal returns the first failed fatal result.
func FirstFatal(results []Result) (Result, bool) {
	for _, r := range results {
		if r.Fatal && !r.Passed {
			return r, true
		}
	}
	return Result{}, false
}

func fatal(r Result) Result {
	r.Fatal = true
	return r
}
