// Package config gathers the settings of every command into one explicit
// structure read from viper. Keys follow the "<section>.<flag>" layout used
// by the command flags, so flags, the config file and TINYNAS_* environment
// variables all resolve through the same viper instance.
package config

import (
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/idlab-discover/tinynas-cli/internal/apperr"
	"github.com/idlab-discover/tinynas-cli/internal/model"
	"github.com/idlab-discover/tinynas-cli/internal/search"
	"github.com/idlab-discover/tinynas-cli/internal/store"
	"github.com/idlab-discover/tinynas-cli/internal/trainer"
)

// SearchConfig drives the search command.
type SearchConfig struct {
	Trials     int
	Epochs     int
	ImageSize  int
	ClassCount int
	Batch      int
	Optimizer  string
	TopK       int
	Parallel   int
	// Seed 0 asks the command to pick one.
	Seed uint64

	Dataset         string
	DescriptionsDir string
	Project         string
	Report          string

	Store      string
	SQLitePath string

	// BOMDir enables writing ML-BOMs for the top-K trials when set.
	BOMDir     string
	BOMFormat  string
	BOMSpec    string
	Trainer    string
	LogLevel   string
	NoProgress bool
}

// TrainConfig drives the standalone train command.
type TrainConfig struct {
	Model           string
	DescriptionsDir string
	Dataset         string
	ImageSize       int
	Optimizer       string
	Epochs          int
	Batch           int
	Project         string
	Name            string
	Trainer         string
	LogLevel        string
}

// TrainerConfig holds backend specific options shared by search and train.
type TrainerConfig struct {
	Binary     string              `mapstructure:"binary"`
	Device     string              `mapstructure:"device"`
	ExtraArgs  []string            `mapstructure:"extra-args"`
	Command    string              `mapstructure:"command"`
	Args       []string            `mapstructure:"args"`
	Paths      trainer.MetricPaths `mapstructure:"paths"`
	DummyDelay time.Duration       `mapstructure:"dummy-delay"`
}

// Options converts c for trainer.New.
func (c TrainerConfig) Options(output io.Writer) trainer.Options {
	return trainer.Options{
		Binary:     c.Binary,
		Device:     c.Device,
		ExtraArgs:  c.ExtraArgs,
		Command:    c.Command,
		Args:       c.Args,
		Paths:      c.Paths,
		DummyDelay: c.DummyDelay,
		Output:     output,
	}
}

// Config is the complete configuration.
type Config struct {
	Search      SearchConfig
	Train       TrainConfig
	Constraints model.Constraints
	Space       search.Space
	Trainer     TrainerConfig
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Search: SearchConfig{
			Trials:          5,
			Epochs:          3,
			ImageSize:       96,
			ClassCount:      4,
			Batch:           16,
			TopK:            3,
			Parallel:        1,
			Dataset:         "dataset.yaml",
			DescriptionsDir: "generated_yamls",
			Project:         "bo_runs",
			Report:          "sorted_trials_user_attrs.txt",
			Store:           "memory",
			SQLitePath:      "tinynas.db",
			BOMFormat:       "json",
			Trainer:         "ultralytics",
			LogLevel:        "standard",
		},
		Train: TrainConfig{
			Model:           "model_trial_10",
			DescriptionsDir: "generated_yamls",
			Dataset:         "dataset.yaml",
			ImageSize:       320,
			Optimizer:       "SGD",
			Epochs:          300,
			Batch:           64,
			Project:         "tiny_yolo",
			Trainer:         "ultralytics",
			LogLevel:        "standard",
		},
		Constraints: model.DefaultConstraints(),
		Space:       search.DefaultSpace(),
		Trainer: TrainerConfig{
			Binary: "yolo",
			Paths:  trainer.DefaultMetricPaths(),
		},
	}
}

// SetDefaults registers Default() with v so that unset keys resolve to it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	defaults := map[string]any{
		"search.trials":           d.Search.Trials,
		"search.epochs":           d.Search.Epochs,
		"search.imgsz":            d.Search.ImageSize,
		"search.nc":               d.Search.ClassCount,
		"search.batch":            d.Search.Batch,
		"search.optimizer":        d.Search.Optimizer,
		"search.top-k":            d.Search.TopK,
		"search.parallel":         d.Search.Parallel,
		"search.seed":             d.Search.Seed,
		"search.dataset":          d.Search.Dataset,
		"search.descriptions-dir": d.Search.DescriptionsDir,
		"search.project":          d.Search.Project,
		"search.report":           d.Search.Report,
		"search.store":            d.Search.Store,
		"search.sqlite-path":      d.Search.SQLitePath,
		"search.bom-dir":          d.Search.BOMDir,
		"search.bom-format":       d.Search.BOMFormat,
		"search.bom-spec":         d.Search.BOMSpec,
		"search.trainer":          d.Search.Trainer,
		"search.log-level":        d.Search.LogLevel,
		"search.no-progress":      d.Search.NoProgress,

		"train.model":            d.Train.Model,
		"train.descriptions-dir": d.Train.DescriptionsDir,
		"train.dataset":          d.Train.Dataset,
		"train.imgsz":            d.Train.ImageSize,
		"train.optimizer":        d.Train.Optimizer,
		"train.epochs":           d.Train.Epochs,
		"train.batch":            d.Train.Batch,
		"train.project":          d.Train.Project,
		"train.name":             d.Train.Name,
		"train.trainer":          d.Train.Trainer,
		"train.log-level":        d.Train.LogLevel,

		"constraints.max-size-kb": d.Constraints.MaxModelSizeKB,
		"constraints.max-params-m": d.Constraints.MaxParamsM,
		"constraints.max-gflops":   d.Constraints.MaxGFLOPs,

		"trainer.binary": d.Trainer.Binary,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load builds a Config from v. Sections missing from v keep their defaults.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	cfg.Search = SearchConfig{
		Trials:          intOr(v, "search.trials", cfg.Search.Trials),
		Epochs:          intOr(v, "search.epochs", cfg.Search.Epochs),
		ImageSize:       intOr(v, "search.imgsz", cfg.Search.ImageSize),
		ClassCount:      intOr(v, "search.nc", cfg.Search.ClassCount),
		Batch:           intOr(v, "search.batch", cfg.Search.Batch),
		Optimizer:       stringOr(v, "search.optimizer", cfg.Search.Optimizer),
		TopK:            intOr(v, "search.top-k", cfg.Search.TopK),
		Parallel:        intOr(v, "search.parallel", cfg.Search.Parallel),
		Seed:            v.GetUint64("search.seed"),
		Dataset:         stringOr(v, "search.dataset", cfg.Search.Dataset),
		DescriptionsDir: stringOr(v, "search.descriptions-dir", cfg.Search.DescriptionsDir),
		Project:         stringOr(v, "search.project", cfg.Search.Project),
		Report:          stringOr(v, "search.report", cfg.Search.Report),
		Store:           lowerOr(v, "search.store", cfg.Search.Store),
		SQLitePath:      stringOr(v, "search.sqlite-path", cfg.Search.SQLitePath),
		BOMDir:          stringOr(v, "search.bom-dir", cfg.Search.BOMDir),
		BOMFormat:       lowerOr(v, "search.bom-format", cfg.Search.BOMFormat),
		BOMSpec:         stringOr(v, "search.bom-spec", cfg.Search.BOMSpec),
		Trainer:         lowerOr(v, "search.trainer", cfg.Search.Trainer),
		LogLevel:        lowerOr(v, "search.log-level", cfg.Search.LogLevel),
		NoProgress:      v.GetBool("search.no-progress"),
	}

	cfg.Train = TrainConfig{
		Model:           stringOr(v, "train.model", cfg.Train.Model),
		DescriptionsDir: stringOr(v, "train.descriptions-dir", cfg.Train.DescriptionsDir),
		Dataset:         stringOr(v, "train.dataset", cfg.Train.Dataset),
		ImageSize:       intOr(v, "train.imgsz", cfg.Train.ImageSize),
		Optimizer:       stringOr(v, "train.optimizer", cfg.Train.Optimizer),
		Epochs:          intOr(v, "train.epochs", cfg.Train.Epochs),
		Batch:           intOr(v, "train.batch", cfg.Train.Batch),
		Project:         stringOr(v, "train.project", cfg.Train.Project),
		Name:            strings.TrimSpace(v.GetString("train.name")),
		Trainer:         lowerOr(v, "train.trainer", cfg.Train.Trainer),
		LogLevel:        lowerOr(v, "train.log-level", cfg.Train.LogLevel),
	}

	cfg.Constraints = model.Constraints{
		MaxModelSizeKB: floatOr(v, "constraints.max-size-kb", cfg.Constraints.MaxModelSizeKB),
		MaxParamsM:     floatOr(v, "constraints.max-params-m", cfg.Constraints.MaxParamsM),
		MaxGFLOPs:      floatOr(v, "constraints.max-gflops", cfg.Constraints.MaxGFLOPs),
	}

	if v.IsSet("space") {
		var sp search.Space
		if err := v.UnmarshalKey("space", &sp); err != nil {
			return Config{}, apperr.WithHint(apperr.Userf("invalid search space: %v", err), "check the space section of the config file")
		}
		cfg.Space = mergeSpace(sp, cfg.Space)
	}

	if v.IsSet("trainer") {
		tc := cfg.Trainer
		if err := v.UnmarshalKey("trainer", &tc); err != nil {
			return Config{}, apperr.WithHint(apperr.Userf("invalid trainer options: %v", err), "check the trainer section of the config file")
		}
		if strings.TrimSpace(tc.Binary) == "" {
			tc.Binary = cfg.Trainer.Binary
		}
		cfg.Trainer = tc
	}

	return cfg, nil
}

// mergeSpace fills the dimensions sp leaves empty from def.
func mergeSpace(sp, def search.Space) search.Space {
	if len(sp.Stages) == 0 {
		sp.Stages = def.Stages
	}
	if len(sp.InitChannels) == 0 {
		sp.InitChannels = def.InitChannels
	}
	if len(sp.ChannelScales) == 0 {
		sp.ChannelScales = def.ChannelScales
	}
	if len(sp.BlockRepeats) == 0 {
		sp.BlockRepeats = def.BlockRepeats
	}
	if len(sp.IncludePool) == 0 {
		sp.IncludePool = def.IncludePool
	}
	return sp
}

func stringOr(v *viper.Viper, key, def string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return def
}

func lowerOr(v *viper.Viper, key, def string) string {
	return strings.ToLower(stringOr(v, key, def))
}

func intOr(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	return v.GetInt(key)
}

func floatOr(v *viper.Viper, key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	return v.GetFloat64(key)
}

// LogLevels are the accepted --log-level values.
var LogLevels = []string{"quiet", "standard", "debug"}

func validLogLevel(level string) bool {
	for _, l := range LogLevels {
		if l == level {
			return true
		}
	}
	return false
}

// ValidateSearch checks the settings the search command relies on.
func (c Config) ValidateSearch() error {
	s := c.Search
	switch {
	case s.Trials <= 0:
		return apperr.Userf("--trials must be positive, got %d", s.Trials)
	case s.Epochs <= 0:
		return apperr.Userf("--epochs must be positive, got %d", s.Epochs)
	case s.ImageSize <= 0 || s.ImageSize%32 != 0:
		return apperr.WithHint(apperr.Userf("--imgsz must be a positive multiple of 32, got %d", s.ImageSize), "detectors downsample by 32")
	case s.ClassCount <= 0:
		return apperr.Userf("--nc must be positive, got %d", s.ClassCount)
	case s.TopK < 0:
		return apperr.Userf("--top-k must not be negative, got %d", s.TopK)
	case s.Parallel <= 0:
		return apperr.Userf("--parallel must be positive, got %d", s.Parallel)
	case s.Dataset == "":
		return apperr.Userf("--dataset is required")
	case !validLogLevel(s.LogLevel):
		return apperr.Userf("invalid --log-level %q (expected quiet|standard|debug)", s.LogLevel)
	}
	if err := validStore(s.Store); err != nil {
		return err
	}
	if err := validTrainer(s.Trainer, c.Trainer); err != nil {
		return err
	}
	if s.BOMFormat != "json" && s.BOMFormat != "xml" {
		return apperr.Userf("invalid --bom-format %q (expected json|xml)", s.BOMFormat)
	}
	if err := c.Space.Validate(); err != nil {
		return apperr.WithHint(apperr.User(err.Error()), "check the space section of the config file")
	}
	cs := c.Constraints
	if cs.MaxModelSizeKB <= 0 || cs.MaxParamsM <= 0 || cs.MaxGFLOPs <= 0 {
		return apperr.Userf("constraints must be positive, got %+v", cs)
	}
	return nil
}

// ValidateTrain checks the settings the train command relies on.
func (c Config) ValidateTrain() error {
	t := c.Train
	switch {
	case t.Epochs <= 0:
		return apperr.Userf("--epochs must be positive, got %d", t.Epochs)
	case t.ImageSize <= 0 || t.ImageSize%32 != 0:
		return apperr.WithHint(apperr.Userf("--imgsz must be a positive multiple of 32, got %d", t.ImageSize), "detectors downsample by 32")
	case t.Batch == 0 || t.Batch < -1:
		return apperr.WithHint(apperr.Userf("--batch must be positive, got %d", t.Batch), "-1 lets the trainer pick a batch size")
	case t.Dataset == "":
		return apperr.Userf("--dataset is required")
	case !validLogLevel(t.LogLevel):
		return apperr.Userf("invalid --log-level %q (expected quiet|standard|debug)", t.LogLevel)
	}
	return validTrainer(t.Trainer, c.Trainer)
}

func validStore(kind string) error {
	for _, k := range store.Kinds {
		if k == kind {
			return nil
		}
	}
	return apperr.Userf("invalid --store %q (expected %s)", kind, strings.Join(store.Kinds, "|"))
}

func validTrainer(kind string, tc TrainerConfig) error {
	known := false
	for _, k := range trainer.Kinds {
		if k == kind {
			known = true
		}
	}
	if !known {
		return apperr.Userf("invalid --trainer %q (expected %s)", kind, strings.Join(trainer.Kinds, "|"))
	}
	if kind == "command" && strings.TrimSpace(tc.Command) == "" {
		return apperr.WithHint(apperr.Userf("the command trainer needs trainer.command"), "set trainer.command in the config file or TINYNAS_TRAINER_COMMAND")
	}
	return nil
}
