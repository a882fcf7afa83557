// Package tinynas exposes the architecture-description generator and the
// description checks for use outside the CLI.
package tinynas

import (
	"context"
	"fmt"

	"github.com/idlab-discover/tinynas-cli/internal/model"
	"github.com/idlab-discover/tinynas-cli/internal/search"
	"github.com/idlab-discover/tinynas-cli/internal/store"
	"github.com/idlab-discover/tinynas-cli/internal/topology"
	"github.com/idlab-discover/tinynas-cli/internal/trainer"
	"github.com/idlab-discover/tinynas-cli/internal/validator"
)

type (
	ArchitectureSpec = topology.ArchitectureSpec
	Description      = topology.Description
	LayerRecord      = topology.LayerRecord
	InvalidSpecError = topology.InvalidSpecError
	ValidationResult = validator.Result

	Sample      = model.Sample
	Metrics     = model.Metrics
	Constraints = model.Constraints
	Trial       = model.Trial
	Space       = search.Space
)

// Generate builds the layer-list description for spec.
func Generate(spec ArchitectureSpec) (*Description, error) {
	return topology.Generate(spec)
}

// GenerateYAML builds and renders the description for spec.
func GenerateYAML(spec ArchitectureSpec) (string, error) {
	d, err := topology.Generate(spec)
	if err != nil {
		return "", err
	}
	return d.Render(), nil
}

// Parse decodes a description.
func Parse(data []byte) (*Description, error) {
	return topology.Parse(data)
}

// Validate checks a description; see validator.Validate.
func Validate(d *Description, strict bool) ValidationResult {
	return validator.Validate(d, strict)
}

// SpecFromSample turns a search-space sample into a generator input.
func SpecFromSample(s Sample, classCount int) ArchitectureSpec {
	return search.Spec(s, classCount)
}

// DefaultSpace is the search space the CLI samples from by default.
func DefaultSpace() Space { return search.DefaultSpace() }

// DefaultConstraints are the microcontroller budgets used for scoring.
func DefaultConstraints() Constraints { return model.DefaultConstraints() }

// Score evaluates trainer metrics against c; infeasible candidates score 0.
func Score(m Metrics, c Constraints) (score float64, feasible bool) {
	return search.Evaluate(m, c)
}

// DryRunOptions configures DryRun.
type DryRunOptions struct {
	Trials          int
	ClassCount      int
	Seed            uint64
	DescriptionsDir string
	Space           Space
	Constraints     Constraints
}

// DryRun runs an in-memory search with the deterministic dummy trainer.
// Descriptions are still written to DescriptionsDir.
func DryRun(ctx context.Context, opts DryRunOptions) ([]Trial, error) {
	if opts.DescriptionsDir == "" {
		return nil, fmt.Errorf("tinynas: DescriptionsDir is required")
	}
	space := opts.Space
	if len(space.Stages) == 0 {
		space = search.DefaultSpace()
	}
	constraints := opts.Constraints
	if constraints == (Constraints{}) {
		constraints = model.DefaultConstraints()
	}
	nc := opts.ClassCount
	if nc <= 0 {
		nc = 4
	}

	st := store.NewMemoryStore()
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	d := &search.Driver{
		Settings: search.Settings{
			Trials:          opts.Trials,
			Parallel:        1,
			ClassCount:      nc,
			DescriptionsDir: opts.DescriptionsDir,
			Dataset:         "dataset.yaml",
			Epochs:          3,
			ImageSize:       96,
			TrainerName:     "dummy",
			Seed:            opts.Seed,
		},
		Constraints: constraints,
		Sampler:     search.NewRandomSampler(space, opts.Seed),
		Trainer:     &trainer.DummyTrainer{},
		Store:       st,
	}
	res, err := d.Run(ctx)
	if res == nil {
		return nil, err
	}
	return res.Trials, err
}
