package search

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

// Sampler picks the hyperparameters of a trial.
type Sampler interface {
	Next(trial int) model.Sample
}

// RandomSampler draws every choice independently and uniformly. The same
// seed yields the same sequence of samples.
type RandomSampler struct {
	space Space

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomSampler(space Space, seed uint64) *RandomSampler {
	return &RandomSampler{
		space: space,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *RandomSampler) Next(_ int) model.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.space
	return model.Sample{
		Stages:       s.Stages[r.rng.IntN(len(s.Stages))],
		InitChannels: s.InitChannels[r.rng.IntN(len(s.InitChannels))],
		ChannelScale: s.ChannelScales[r.rng.IntN(len(s.ChannelScales))],
		BlockRepeats: slices.Clone(s.BlockRepeats[r.rng.IntN(len(s.BlockRepeats))]),
		IncludePool:  s.IncludePool[r.rng.IntN(len(s.IncludePool))],
	}
}
