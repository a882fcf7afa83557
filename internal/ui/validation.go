package ui

import (
	"fmt"
	"io"
	"strings"
)

// ValidationReport mirrors validator.Result to avoid circular imports.
type ValidationReport struct {
	Path     string
	Valid    bool
	Errors   []string
	Warnings []string

	BackboneLayers int
	HeadLayers     int
	DetectInputs   []int
	Scales         int
}

// ValidationUI provides a rich UI for the validate command
type ValidationUI struct {
	writer io.Writer
	quiet  bool
}

// NewValidationUI creates a new UI handler for the validate command
func NewValidationUI(w io.Writer, quiet bool) *ValidationUI {
	return &ValidationUI{writer: w, quiet: quiet}
}

// PrintReport renders the validation outcome in a box
func (v *ValidationUI) PrintReport(report ValidationReport) {
	if v.quiet {
		return
	}

	var output strings.Builder
	if report.Valid {
		output.WriteString(Success.Bold(true).Render("✓ Validation Passed"))
	} else {
		output.WriteString(Error.Bold(true).Render("✗ Validation Failed"))
	}
	output.WriteString("\n\n")

	output.WriteString(SectionHeader.Render("Description"))
	output.WriteString("\n")
	if report.Path != "" {
		output.WriteString(FormatKeyValue("File", Highlight.Render(report.Path)))
		output.WriteString("\n")
	}
	output.WriteString(FormatKeyValue("Layers", fmt.Sprintf("%d backbone · %d head", report.BackboneLayers, report.HeadLayers)))
	output.WriteString("\n")
	output.WriteString(FormatKeyValue("Detect", fmt.Sprintf("%v", report.DetectInputs)))
	output.WriteString("\n")
	output.WriteString(FormatKeyValue("Scales", fmt.Sprintf("%d preset(s)", report.Scales)))

	if len(report.Errors) > 0 {
		output.WriteString("\n\n")
		output.WriteString(Error.Render(fmt.Sprintf("Errors (%d)", len(report.Errors))))
		for _, e := range report.Errors {
			output.WriteString("\n  " + GetCrossMark() + " " + e)
		}
	}
	if len(report.Warnings) > 0 {
		output.WriteString("\n\n")
		output.WriteString(Warning.Render(fmt.Sprintf("Warnings (%d)", len(report.Warnings))))
		for _, w := range report.Warnings {
			output.WriteString("\n  " + GetWarnMark() + " " + w)
		}
	}

	if report.Valid {
		fmt.Fprintln(v.writer, SuccessBox.Render(output.String()))
	} else {
		fmt.Fprintln(v.writer, ErrorBox.Render(output.String()))
	}
}
