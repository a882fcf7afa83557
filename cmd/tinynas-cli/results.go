package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/idlab-discover/tinynas-cli/internal/bom"
	bomio "github.com/idlab-discover/tinynas-cli/internal/io"
	"github.com/idlab-discover/tinynas-cli/internal/model"
	"github.com/idlab-discover/tinynas-cli/internal/report"
	"github.com/idlab-discover/tinynas-cli/internal/ui"
)

// resultOptions controls how a finished (or stored) run is presented.
type resultOptions struct {
	TopK       int
	ReportPath string
	BOMDir     string
	BOMFormat  string
	BOMSpec    string
	Quiet      bool
}

func trialRows(trials []model.Trial) []ui.TrialRow {
	rows := make([]ui.TrialRow, len(trials))
	for i, t := range trials {
		rows[i] = ui.TrialRow{
			Rank:            i + 1,
			Number:          t.Number,
			Score:           t.Score,
			Precision:       t.Metrics.Precision,
			Recall:          t.Metrics.Recall,
			MAP50:           t.Metrics.MAP50,
			ParamsM:         t.Metrics.ParamsM,
			GFLOPs:          t.Metrics.GFLOPs,
			SizeKB:          t.Metrics.SizeKB,
			DescriptionPath: t.DescriptionPath,
			Feasible:        t.Feasible,
		}
	}
	return rows
}

func runSummary(runID string, s report.Summary) ui.RunSummary {
	return ui.RunSummary{
		RunID:     runID,
		Trials:    s.Trials,
		Completed: s.Completed,
		Failed:    s.Failed,
		Feasible:  s.Feasible,
		Best:      s.Best,
		Mean:      s.Mean,
		StdDev:    s.StdDev,
	}
}

// presentResults prints the ranking, writes the report file and the
// optional ML-BOMs of the top trials.
func presentResults(w io.Writer, run model.Run, trials []model.Trial, opts resultOptions) error {
	rep := ui.NewReportUI(w, opts.Quiet)
	top := report.TopK(trials, opts.TopK)

	rep.PrintSummary(runSummary(run.ID, report.Summarize(trials)))
	if len(top) == 0 {
		if !opts.Quiet {
			fmt.Fprintln(w, ui.FormatStatus("warning", "No trial completed"))
		}
	} else {
		rep.PrintTop(opts.TopK, trialRows(top))
		rep.PrintPareto(trialRows(report.ParetoFront(trials)))
	}

	if opts.ReportPath != "" {
		if err := report.WriteFile(opts.ReportPath, trials); err != nil {
			return err
		}
		if !opts.Quiet {
			fmt.Fprintln(w, ui.FormatStatus("success", "Report written to "+ui.Highlight.Render(opts.ReportPath)))
		}
	}

	if opts.BOMDir == "" || len(top) == 0 {
		return nil
	}
	written := 0
	for _, t := range top {
		b, err := bom.Build(&run, t)
		if err != nil {
			return err
		}
		path := filepath.Join(opts.BOMDir, bom.FileName(t, opts.BOMFormat))
		if err := bomio.WriteBOM(b, path, opts.BOMFormat, opts.BOMSpec); err != nil {
			return fmt.Errorf("write BOM for trial %d: %w", t.Number, err)
		}
		written++
	}
	if !opts.Quiet {
		fmt.Fprintln(w, ui.FormatStatus("success", fmt.Sprintf("Wrote %d ML-BOM(s) to %s", written, ui.Highlight.Render(opts.BOMDir))))
	}
	return nil
}
