package validator

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/idlab-discover/tinynas-cli/internal/topology"
)

func generated(t *testing.T, stages int, pool bool) *topology.Description {
	t.Helper()
	channels := make([]int, stages+1)
	repeats := make([]int, stages)
	for i := range channels {
		channels[i] = 16 << i
	}
	for i := range repeats {
		repeats[i] = 1
	}
	d, err := topology.Generate(topology.ArchitectureSpec{
		ClassCount: 4, StageCount: stages, ChannelSizes: channels, BlockRepeats: repeats, IncludePool: pool,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return d
}

func contains(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestValidateGenerated(t *testing.T) {
	for stages := topology.MinStages; stages <= topology.MaxStages; stages++ {
		for _, pool := range []bool{false, true} {
			d := generated(t, stages, pool)
			r := Validate(d, true)
			if !r.Valid {
				t.Fatalf("stages=%d pool=%v: errors %v", stages, pool, r.Errors)
			}
			if r.Scales != 5 || r.BackboneLayers != len(d.Backbone) || r.HeadLayers != len(d.Head) {
				t.Fatalf("stages=%d pool=%v: counts %+v", stages, pool, r)
			}
			single := contains(r.Warnings, "single input scale")
			if single != (stages == topology.MinStages) {
				t.Fatalf("stages=%d pool=%v: single-tap warning = %v (%v)", stages, pool, single, r.Warnings)
			}
		}
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *topology.Description)
		want   string
	}{
		{
			name:   "forward reference",
			mutate: func(d *topology.Description) { d.Head[0].From = []int{len(d.Backbone) + 3} },
			want:   "forward reference",
		},
		{
			name: "missing detect",
			mutate: func(d *topology.Description) {
				d.Head = d.Head[:len(d.Head)-1]
			},
			want: "no Detect layer",
		},
		{
			name: "detect not last",
			mutate: func(d *topology.Description) {
				n := len(d.Backbone) + len(d.Head)
				d.Head = append(d.Head, topology.LayerRecord{Index: n, From: []int{-1}, Repeat: 1, Kind: topology.KindConv, Module: "Conv", Args: []string{"8", "3", "1"}})
			},
			want: "is not the last layer",
		},
		{
			name:   "non-positive nc",
			mutate: func(d *topology.Description) { d.ClassCount = 0 },
			want:   "nc must be positive",
		},
		{
			name:   "zero repeat",
			mutate: func(d *topology.Description) { d.Backbone[1].Repeat = 0 },
			want:   "repeat must be positive",
		},
		{
			name:   "strict scales",
			mutate: func(d *topology.Description) { d.Scales = nil },
			want:   "no scales block",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := generated(t, 5, true)
			tt.mutate(d)
			r := Validate(d, true)
			if r.Valid {
				t.Fatalf("expected invalid result")
			}
			if !contains(r.Errors, tt.want) {
				t.Fatalf("errors %v do not mention %q", r.Errors, tt.want)
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	d := generated(t, 5, false)
	d.Scales = d.Scales[:3]
	d.Backbone[0].Kind = topology.KindOther
	d.Backbone[0].Module = "GhostConv"
	r := Validate(d, false)
	if !r.Valid {
		t.Fatalf("warnings must not invalidate: %v", r.Errors)
	}
	for _, want := range []string{"3 presets", "unknown module \"GhostConv\""} {
		if !contains(r.Warnings, want) {
			t.Fatalf("warnings %v do not mention %q", r.Warnings, want)
		}
	}
}

func TestValidateNil(t *testing.T) {
	if r := Validate(nil, false); r.Valid || len(r.Errors) != 1 {
		t.Fatalf("nil description: %+v", r)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "model_trial_0.yaml")
	if err := os.WriteFile(good, []byte(generated(t, 4, true).Render()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, r, err := ValidateFile(good, true)
	if err != nil || d == nil || !r.Valid {
		t.Fatalf("ValidateFile: d=%v r=%+v err=%v", d != nil, r, err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	content := "nc: 2\nbackbone:\n  - [-1, 1, Conv, [16, 3, 2]]\n  - [3, 1, Conv, [32, 3, 2]]\nhead:\n  - [[0, 1], 1, Detect, [nc]]\n"
	if err := os.WriteFile(bad, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, r, err = ValidateFile(bad, false)
	if err != nil {
		t.Fatalf("ValidateFile: %v", err)
	}
	if r.Valid || !contains(r.Errors, "layer 1") {
		t.Fatalf("expected reference error, got %+v", r)
	}

	if _, _, err := ValidateFile(filepath.Join(dir, "missing.yaml"), false); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFormatSummary(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "passed",
			res:  Result{Valid: true, BackboneLayers: 10, HeadLayers: 13, DetectInputs: []int{15, 18, 21}, Warnings: []string{"w"}},
			want: "Validation: ✅ PASSED | Layers: 23 | Detect inputs: 3 | Errors: 0 | Warnings: 1",
		},
		{
			name: "failed",
			res:  Result{Valid: false, BackboneLayers: 2, Errors: []string{"a", "b"}},
			want: "Validation: ❌ FAILED | Layers: 2 | Detect inputs: 0 | Errors: 2 | Warnings: 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSummary(tt.res); got != tt.want {
				t.Fatalf("FormatSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintReportAndUIReport(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(&buf)
	defer SetLogger(nil)

	r := Result{Valid: false, Errors: []string{"broken"}, Warnings: []string{"odd"}, DetectInputs: []int{4}}
	PrintReport(r)
	out := buf.String()
	for _, want := range []string{"validation failed", "broken", "odd", "detect=[4]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report %q missing %q", out, want)
		}
	}

	u := UIReport("x.yaml", r)
	if u.Path != "x.yaml" || u.Valid || len(u.Errors) != 1 || u.DetectInputs[0] != 4 {
		t.Fatalf("UIReport = %+v", u)
	}
}
