package ui

import (
	"fmt"
	"io"
	"strings"
)

// TrialRow mirrors a ranked trial from internal/report to avoid circular
// imports.
type TrialRow struct {
	Rank            int
	Number          int
	Score           float64
	Precision       float64
	Recall          float64
	MAP50           float64
	ParamsM         float64
	GFLOPs          float64
	SizeKB          float64
	DescriptionPath string
	Feasible        bool
}

// RunSummary mirrors report.Summary.
type RunSummary struct {
	RunID     string
	Trials    int
	Completed int
	Failed    int
	Feasible  int
	Best      float64
	Mean      float64
	StdDev    float64
}

// ReportUI renders ranked search results.
type ReportUI struct {
	writer io.Writer
	quiet  bool
}

// NewReportUI creates a new UI handler for search results
func NewReportUI(w io.Writer, quiet bool) *ReportUI {
	return &ReportUI{writer: w, quiet: quiet}
}

// PrintTop prints the best k trials, one block per rank.
func (r *ReportUI) PrintTop(k int, rows []TrialRow) {
	if r.quiet {
		return
	}
	var sb strings.Builder
	sb.WriteString(Success.Bold(true).Render(fmt.Sprintf("🏆 Top %d Architectures:", k)))
	sb.WriteString("\n")
	if len(rows) == 0 {
		sb.WriteString("\n")
		sb.WriteString(Dim.Render("no completed trials"))
	}
	for _, row := range rows {
		sb.WriteString("\n")
		sb.WriteString(Highlight.Render(fmt.Sprintf("🔹 Rank %d: Trial %d", row.Rank, row.Number)))
		if !row.Feasible {
			sb.WriteString(" " + Warning.Render("(infeasible)"))
		}
		sb.WriteString("\n")
		sb.WriteString(trialBlock(row))
	}
	fmt.Fprintln(r.writer, SuccessBox.Render(strings.TrimRight(sb.String(), "\n")))
}

func trialBlock(row TrialRow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%.4f\n", Dim.Render("Score:     "), row.Score)
	fmt.Fprintf(&sb, "%s%.4f\n", Dim.Render("Precision: "), row.Precision)
	fmt.Fprintf(&sb, "%s%.4f\n", Dim.Render("Recall:    "), row.Recall)
	fmt.Fprintf(&sb, "%s%.4f\n", Dim.Render("mAP50:     "), row.MAP50)
	fmt.Fprintf(&sb, "%s%.2f M\n", Dim.Render("Params:    "), row.ParamsM)
	fmt.Fprintf(&sb, "%s%.2f\n", Dim.Render("GFLOPs:    "), row.GFLOPs)
	fmt.Fprintf(&sb, "%s%.1f KB\n", Dim.Render("Size:      "), row.SizeKB)
	fmt.Fprintf(&sb, "%s%s\n", Dim.Render("YAML:      "), row.DescriptionPath)
	return sb.String()
}

// PrintPareto lists the non-dominated trials on one line each.
func (r *ReportUI) PrintPareto(rows []TrialRow) {
	if r.quiet || len(rows) == 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString(SectionHeader.Render("Pareto front (score ↑, size ↓, params ↓)"))
	for _, row := range rows {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "  %s Trial %d  score %.4f  %.1f KB  %.2f M",
			GetBullet(), row.Number, row.Score, row.SizeKB, row.ParamsM)
	}
	fmt.Fprintln(r.writer, Box.Render(sb.String()))
}

// PrintSummary prints run-level statistics.
func (r *ReportUI) PrintSummary(s RunSummary) {
	if r.quiet {
		return
	}
	var sb strings.Builder
	sb.WriteString(SectionHeader.Render("Run " + s.RunID))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Trials", fmt.Sprintf("%d (%d completed, %d failed)", s.Trials, s.Completed, s.Failed)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Feasible", fmt.Sprintf("%d", s.Feasible)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Score", fmt.Sprintf("best %.4f · mean %.4f · std %.4f", s.Best, s.Mean, s.StdDev)))
	fmt.Fprintln(r.writer, Box.Render(sb.String()))
}
