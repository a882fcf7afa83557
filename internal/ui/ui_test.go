package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestColorAppliesANSICodes(t *testing.T) {
	Init(false)
	got := Color("hello", FgGreen)
	want := FgGreen + "hello" + Reset
	if got != want {
		t.Fatalf("Color() = %q, want %q", got, want)
	}
}

func TestColorPlain(t *testing.T) {
	Init(true)
	defer Init(false)
	if got := Color("hello", FgRed); got != "hello" {
		t.Fatalf("Color() in plain mode = %q, want %q", got, "hello")
	}
	if got := Success.Render("ok"); got != "ok" {
		t.Fatalf("Success.Render() in plain mode = %q", got)
	}
}

func TestReportUI_PrintTop(t *testing.T) {
	Init(true)
	defer Init(false)

	rows := []TrialRow{
		{Rank: 1, Number: 4, Score: 0.5123, Precision: 0.6, Recall: 0.4, MAP50: 0.52, ParamsM: 0.41, GFLOPs: 1.2, SizeKB: 850.5, DescriptionPath: "generated_yamls/model_trial_4.yaml", Feasible: true},
		{Rank: 2, Number: 1, Score: 0, ParamsM: 0.9, SizeKB: 1900, DescriptionPath: "generated_yamls/model_trial_1.yaml"},
	}

	var buf bytes.Buffer
	NewReportUI(&buf, false).PrintTop(2, rows)
	out := buf.String()

	for _, want := range []string{
		"Top 2 Architectures",
		"Rank 1: Trial 4",
		"Score:     0.5123",
		"Params:    0.41 M",
		"Size:      850.5 KB",
		"YAML:      generated_yamls/model_trial_4.yaml",
		"Rank 2: Trial 1",
		"(infeasible)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReportUI_Quiet(t *testing.T) {
	var buf bytes.Buffer
	r := NewReportUI(&buf, true)
	r.PrintTop(3, []TrialRow{{Rank: 1}})
	r.PrintSummary(RunSummary{RunID: "x"})
	r.PrintPareto([]TrialRow{{Rank: 1}})
	if buf.Len() != 0 {
		t.Fatalf("quiet report wrote %q", buf.String())
	}
}

func TestReportUI_PrintSummary(t *testing.T) {
	Init(true)
	defer Init(false)

	var buf bytes.Buffer
	NewReportUI(&buf, false).PrintSummary(RunSummary{RunID: "run-1", Trials: 5, Completed: 4, Failed: 1, Feasible: 3, Best: 0.7, Mean: 0.5, StdDev: 0.1})
	out := buf.String()
	for _, want := range []string{"Run run-1", "5 (4 completed, 1 failed)", "best 0.7000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidationUI_PrintReport(t *testing.T) {
	Init(true)
	defer Init(false)

	tests := []struct {
		name   string
		report ValidationReport
		want   []string
	}{
		{
			name:   "valid",
			report: ValidationReport{Path: "a.yaml", Valid: true, BackboneLayers: 10, HeadLayers: 13, DetectInputs: []int{15, 18, 21}, Scales: 5},
			want:   []string{"Validation Passed", "a.yaml", "10 backbone · 13 head", "[15 18 21]"},
		},
		{
			name:   "invalid",
			report: ValidationReport{Valid: false, Errors: []string{"layer 3: bad ref"}, Warnings: []string{"no scales"}},
			want:   []string{"Validation Failed", "Errors (1)", "layer 3: bad ref", "Warnings (1)", "no scales"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewValidationUI(&buf, false).PrintReport(tt.report)
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Fatalf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestSearchUI_TracksTrials(t *testing.T) {
	Init(true)
	defer Init(false)

	var buf bytes.Buffer
	s := NewSearchUI(&buf, false)
	s.Start("run-1", 2)
	s.TrialStarted(0, "stages=4")
	s.TrialDone(0, 0.42, true)
	s.TrialStarted(1, "stages=3")
	s.TrialFailed(1, errors.New("trainer exited"))
	s.Stop()

	if got := s.workflow.Status(s.task(0)); got != TaskDone {
		t.Fatalf("trial 0 status = %v, want done", got)
	}
	if got := s.workflow.Status(s.task(1)); got != TaskFailed {
		t.Fatalf("trial 1 status = %v, want failed", got)
	}
	out := buf.String()
	for _, want := range []string{"Trial 0", "score 0.4200", "Trial 1", "trainer exited"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSearchUI_InterruptedTrialIsSkipped(t *testing.T) {
	Init(true)
	defer Init(false)

	var buf bytes.Buffer
	s := NewSearchUI(&buf, false)
	s.Start("run-2", 1)
	s.TrialStarted(3, "stages=5")
	s.TrialFailed(3, fmt.Errorf("train: %w", context.Canceled))
	s.Stop()

	if got := s.workflow.Status(s.task(3)); got != TaskSkipped {
		t.Fatalf("trial 3 status = %v, want skipped", got)
	}
	if out := buf.String(); !strings.Contains(out, "⊘ Trial 3 → interrupted") {
		t.Fatalf("output missing skipped trial:\n%s", out)
	}
}

func TestDescriptionSelector_EnterConfirms(t *testing.T) {
	items := []DescriptionItem{
		{Path: "generated_yamls/model_trial_0.yaml", Name: "model_trial_0", Layers: 23},
		{Path: "generated_yamls/model_trial_1.yaml", Name: "model_trial_1", Layers: 19},
	}
	m := NewDescriptionSelector(items)
	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !m.confirmed || m.choice != items[0].Path {
		t.Fatalf("confirmed=%v choice=%q", m.confirmed, m.choice)
	}
}

func TestDescriptionSelector_EscCancels(t *testing.T) {
	m := NewDescriptionSelector([]DescriptionItem{{Path: "a.yaml", Name: "a"}})
	m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.confirmed || !m.quitting {
		t.Fatalf("confirmed=%v quitting=%v", m.confirmed, m.quitting)
	}
}

func TestRunDescriptionSelector_Empty(t *testing.T) {
	if _, err := RunDescriptionSelector(nil); err == nil {
		t.Fatal("expected error for empty item list")
	}
}

func TestRenderTrainingPlan(t *testing.T) {
	Init(true)
	defer Init(false)

	out := RenderTrainingPlan(TrainingPlan{
		Description: "generated_yamls/model_trial_10.yaml",
		Dataset:     "dataset.yaml",
		Trainer:     "ultralytics",
		Epochs:      300,
		ImageSize:   320,
		Batch:       64,
		Optimizer:   "SGD",
		RunDir:      "tiny_yolo/model_trial_10",
	})
	for _, want := range []string{
		"Training run",
		"Model: generated_yamls/model_trial_10.yaml",
		"Dataset: dataset.yaml",
		"Schedule: 300 epochs · imgsz 320 · batch 64 · SGD",
		"Output: tiny_yolo/model_trial_10",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("plan missing %q:\n%s", want, out)
		}
	}
}
