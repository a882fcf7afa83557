package tinynas

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateAndValidate(t *testing.T) {
	spec := SpecFromSample(Sample{Stages: 5, InitChannels: 32, ChannelScale: 1.5, BlockRepeats: []int{1, 2, 2, 2}, IncludePool: true}, 4)
	text, err := GenerateYAML(spec)
	if err != nil {
		t.Fatalf("GenerateYAML: %v", err)
	}
	if !strings.Contains(text, "Detect") {
		t.Fatalf("rendered description has no Detect layer:\n%s", text)
	}
	d, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r := Validate(d, true); !r.Valid {
		t.Fatalf("Validate: %v", r.Errors)
	}
}

func TestGenerateRejectsInvalidSpec(t *testing.T) {
	_, err := Generate(ArchitectureSpec{ClassCount: 4, StageCount: 6})
	if err == nil {
		t.Fatalf("expected error for 6 stages")
	}
	if _, ok := err.(*InvalidSpecError); !ok {
		t.Fatalf("error type = %T", err)
	}
}

func TestScore(t *testing.T) {
	m := Metrics{Precision: 0.5, Recall: 0.5, MAP50: 0.5, SizeKB: 100, ParamsM: 0.1, GFLOPs: 0.5}
	if s, ok := Score(m, DefaultConstraints()); !ok || s != 0.5 {
		t.Fatalf("Score = %v, %v", s, ok)
	}
	m.SizeKB = 2000
	if s, ok := Score(m, DefaultConstraints()); ok || s != 0 {
		t.Fatalf("oversized Score = %v, %v", s, ok)
	}
}

func TestDryRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "yamls")
	trials, err := DryRun(context.Background(), DryRunOptions{Trials: 3, Seed: 11, DescriptionsDir: dir})
	if err != nil {
		t.Fatalf("DryRun: %v", err)
	}
	if len(trials) != 3 {
		t.Fatalf("trials = %d", len(trials))
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 3 {
		t.Fatalf("descriptions = %d (%v)", len(entries), err)
	}
	if _, err := DryRun(context.Background(), DryRunOptions{Trials: 1}); err == nil {
		t.Fatalf("expected error without a descriptions dir")
	}
}
