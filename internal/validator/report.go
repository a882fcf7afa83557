package validator

import (
	"fmt"

	"github.com/idlab-discover/tinynas-cli/internal/ui"
)

// PrintReport writes the validation report to the configured logger writer.
// If no logger writer is configured, it produces no output.
func PrintReport(r Result) {
	if r.Valid {
		logf("✅ validation passed")
	} else {
		logf("❌ validation failed")
	}

	if len(r.Errors) > 0 {
		logf("errors (%d):", len(r.Errors))
		for _, err := range r.Errors {
			logf("  • %s", err)
		}
	}
	if len(r.Warnings) > 0 {
		logf("warnings (%d):", len(r.Warnings))
		for _, warn := range r.Warnings {
			logf("  • %s", warn)
		}
	}
	logf("layers: backbone=%d head=%d detect=%v", r.BackboneLayers, r.HeadLayers, r.DetectInputs)
}

// FormatSummary returns a one-line summary of the validation result.
func FormatSummary(r Result) string {
	status := "✅ PASSED"
	if !r.Valid {
		status = "❌ FAILED"
	}
	return fmt.Sprintf("Validation: %s | Layers: %d | Detect inputs: %d | Errors: %d | Warnings: %d",
		status,
		r.BackboneLayers+r.HeadLayers,
		len(r.DetectInputs),
		len(r.Errors),
		len(r.Warnings))
}

// UIReport converts r for rendering by ui.ValidationUI.
func UIReport(path string, r Result) ui.ValidationReport {
	return ui.ValidationReport{
		Path:           path,
		Valid:          r.Valid,
		Errors:         r.Errors,
		Warnings:       r.Warnings,
		BackboneLayers: r.BackboneLayers,
		HeadLayers:     r.HeadLayers,
		DetectInputs:   r.DetectInputs,
		Scales:         r.Scales,
	}
}
