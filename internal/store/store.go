// Package store persists search runs and their trials.
package store

import (
	"context"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

// Store defines the persistence operations for runs and trials.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.Run) error
	GetRun(ctx context.Context, id string) (model.Run, bool, error)
	// LatestRun returns the most recently started run.
	LatestRun(ctx context.Context) (model.Run, bool, error)
	// SaveTrial inserts or replaces the trial keyed by (RunID, Number).
	SaveTrial(ctx context.Context, trial model.Trial) error
	// ListTrials returns the trials of a run ordered by number.
	ListTrials(ctx context.Context, runID string) ([]model.Trial, error)
}
