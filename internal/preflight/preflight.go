package preflight

import (
	"context"

	"vidfetch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// CheckDirectories verifies the directories the server writes to.
func CheckDirectories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// RunAll executes the directory checks and, when requested and configured,
// a live translation health check.
func RunAll(ctx context.Context, cfg *config.Config, probe bool) []Result {
	if cfg == nil {
		return nil
	}
	results := CheckDirectories(cfg)
	if probe && cfg.TranslationEnabled() {
		results = append(results, CheckTranslation(ctx, cfg.Translation))
	} else {
		results = append(results, TranslationStatus(cfg))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
