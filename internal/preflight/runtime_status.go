package preflight

import (
	"strings"

	"vidfetch/internal/config"
)

// TranslationStatus reports the translation backend from configuration alone,
// without contacting it. A disabled backend passes; translation endpoints
// then answer with a configuration error.
func TranslationStatus(cfg *config.Config) Result {
	const name = "Translation LLM"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.TranslationEnabled() {
		return Result{Name: name, Passed: true, Detail: "Disabled (no api_key)"}
	}
	model := strings.TrimSpace(cfg.Translation.Model)
	if model == "" {
		return Result{Name: name, Detail: "Missing model"}
	}
	return Result{Name: name, Passed: true, Detail: "Configured (" + model + ")"}
}
