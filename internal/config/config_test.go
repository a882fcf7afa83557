package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/idlab-discover/tinynas-cli/internal/apperr"
)

func TestLoadDefaults(t *testing.T) {
	for _, withDefaults := range []bool{false, true} {
		v := viper.New()
		if withDefaults {
			SetDefaults(v)
		}
		cfg, err := Load(v)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !reflect.DeepEqual(cfg, Default()) {
			t.Fatalf("defaults=%v: got %+v, want %+v", withDefaults, cfg, Default())
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("search.trials", 20)
	v.Set("search.store", "SQLite")
	v.Set("search.seed", 42)
	v.Set("train.model", "model_trial_3")
	v.Set("train.name", "  custom ")
	v.Set("constraints.max-params-m", 1.5)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Trials != 20 || cfg.Search.Store != "sqlite" || cfg.Search.Seed != 42 {
		t.Fatalf("search = %+v", cfg.Search)
	}
	if cfg.Train.Model != "model_trial_3" || cfg.Train.Name != "custom" {
		t.Fatalf("train = %+v", cfg.Train)
	}
	if cfg.Constraints.MaxParamsM != 1.5 || cfg.Constraints.MaxModelSizeKB != 900 {
		t.Fatalf("constraints = %+v", cfg.Constraints)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
search:
  trials: 8
space:
  stages: [4, 5]
  block-repeats:
    - [1, 1, 1, 1]
trainer:
  command: python
  args: ["train.py", "{{.Request.DescriptionPath}}"]
  dummy-delay: 250ms
  paths:
    precision: val.p
`
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(content)); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Trials != 8 {
		t.Fatalf("trials = %d", cfg.Search.Trials)
	}
	if !reflect.DeepEqual(cfg.Space.Stages, []int{4, 5}) || !reflect.DeepEqual(cfg.Space.BlockRepeats, [][]int{{1, 1, 1, 1}}) {
		t.Fatalf("space = %+v", cfg.Space)
	}
	if !reflect.DeepEqual(cfg.Space.InitChannels, Default().Space.InitChannels) {
		t.Fatalf("unset space dimensions should keep defaults: %+v", cfg.Space)
	}
	tc := cfg.Trainer
	if tc.Command != "python" || len(tc.Args) != 2 || tc.DummyDelay != 250*time.Millisecond {
		t.Fatalf("trainer = %+v", tc)
	}
	if tc.Binary != "yolo" {
		t.Fatalf("binary should keep its default, got %q", tc.Binary)
	}
	if tc.Paths.Precision != "val.p" || tc.Paths.Recall != Default().Trainer.Paths.Recall {
		t.Fatalf("paths = %+v", tc.Paths)
	}
	opts := tc.Options(nil)
	if opts.Command != "python" || opts.DummyDelay != 250*time.Millisecond {
		t.Fatalf("options = %+v", opts)
	}
}

func TestShippedDefaultsMatch(t *testing.T) {
	path := filepath.Join("..", "..", "config", "defaults.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Skipf("defaults file not available: %v", err)
	}
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(string(data))); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("config/defaults.yaml drifted from Default():\n got %+v\nwant %+v", cfg, Default())
	}
}

func TestValidateSearch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"ok", func(c *Config) {}, ""},
		{"trials", func(c *Config) { c.Search.Trials = 0 }, "--trials"},
		{"imgsz", func(c *Config) { c.Search.ImageSize = 100 }, "--imgsz"},
		{"parallel", func(c *Config) { c.Search.Parallel = 0 }, "--parallel"},
		{"store", func(c *Config) { c.Search.Store = "redis" }, "--store"},
		{"trainer", func(c *Config) { c.Search.Trainer = "keras" }, "--trainer"},
		{"command without binary", func(c *Config) { c.Search.Trainer = "command" }, "trainer.command"},
		{"log level", func(c *Config) { c.Search.LogLevel = "loud" }, "--log-level"},
		{"bom format", func(c *Config) { c.Search.BOMFormat = "yaml" }, "--bom-format"},
		{"space", func(c *Config) { c.Space.Stages = []int{6} }, "stages"},
		{"constraints", func(c *Config) { c.Constraints.MaxGFLOPs = 0 }, "constraints"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.ValidateSearch()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
			if !apperr.IsUser(err) {
				t.Fatalf("expected a user error, got %T", err)
			}
		})
	}
}

func TestValidateTrain(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"ok", func(c *Config) {}, ""},
		{"auto batch", func(c *Config) { c.Train.Batch = -1 }, ""},
		{"batch", func(c *Config) { c.Train.Batch = 0 }, "--batch"},
		{"epochs", func(c *Config) { c.Train.Epochs = -3 }, "--epochs"},
		{"dataset", func(c *Config) { c.Train.Dataset = "" }, "--dataset"},
		{"trainer", func(c *Config) { c.Train.Trainer = "nope" }, "--trainer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.ValidateTrain()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
