package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

type trialKey struct {
	runID  string
	number int
}

// MemoryStore keeps runs and trials for the lifetime of the process.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.Run
	trials      map[trialKey]model.Trial
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.Run)
	s.trials = make(map[trialKey]model.Trial)
	return nil
}

var errNotInitialized = errors.New("store is not initialized")

func (s *MemoryStore) SaveRun(_ context.Context, run model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) LatestRun(_ context.Context) (model.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest model.Run
		found  bool
	)
	for _, run := range s.runs {
		if !found || run.Started.After(latest.Started) {
			latest, found = run, true
		}
	}
	return latest, found, nil
}

func (s *MemoryStore) SaveTrial(_ context.Context, trial model.Trial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.trials[trialKey{trial.RunID, trial.Number}] = trial
	return nil
}

func (s *MemoryStore) ListTrials(_ context.Context, runID string) ([]model.Trial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Trial
	for key, trial := range s.trials {
		if key.runID == runID {
			out = append(out, trial)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
