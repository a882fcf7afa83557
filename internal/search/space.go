// Package search samples candidate architectures, trains them through a
// trainer and records the scored trials.
package search

import (
	"fmt"
	"math"

	"github.com/idlab-discover/tinynas-cli/internal/model"
	"github.com/idlab-discover/tinynas-cli/internal/topology"
)

// Space is the set of structural choices the sampler draws from.
type Space struct {
	Stages        []int     `mapstructure:"stages"`
	InitChannels  []int     `mapstructure:"init-channels"`
	ChannelScales []float64 `mapstructure:"channel-scales"`
	BlockRepeats  [][]int   `mapstructure:"block-repeats"`
	IncludePool   []bool    `mapstructure:"include-pool"`
}

// DefaultSpace is the space of the microcontroller study: 3 to 5 stages,
// geometric channel growth from 32, 48 or 64, and three repeat profiles.
func DefaultSpace() Space {
	return Space{
		Stages:        []int{3, 4, 5},
		InitChannels:  []int{32, 48, 64},
		ChannelScales: []float64{1.5, 2.0},
		BlockRepeats: [][]int{
			{1, 2, 2, 2},
			{2, 4, 4, 2},
			{3, 6, 6, 3},
		},
		IncludePool: []bool{true, false},
	}
}

// Validate reports a space that cannot produce a valid sample.
func (s Space) Validate() error {
	switch {
	case len(s.Stages) == 0:
		return fmt.Errorf("search space: no stage choices")
	case len(s.InitChannels) == 0:
		return fmt.Errorf("search space: no initial channel choices")
	case len(s.ChannelScales) == 0:
		return fmt.Errorf("search space: no channel scale choices")
	case len(s.BlockRepeats) == 0:
		return fmt.Errorf("search space: no block repeat choices")
	case len(s.IncludePool) == 0:
		return fmt.Errorf("search space: no pool choices")
	}
	for _, st := range s.Stages {
		if st < topology.MinStages || st > topology.MaxStages {
			return fmt.Errorf("search space: %d stages is outside %d..%d", st, topology.MinStages, topology.MaxStages)
		}
	}
	for _, c := range s.InitChannels {
		if c <= 0 {
			return fmt.Errorf("search space: initial channels must be positive, got %d", c)
		}
	}
	for _, sc := range s.ChannelScales {
		if sc <= 0 {
			return fmt.Errorf("search space: channel scale must be positive, got %v", sc)
		}
	}
	for i, r := range s.BlockRepeats {
		if len(r) == 0 {
			return fmt.Errorf("search space: block repeat profile %d is empty", i)
		}
	}
	return nil
}

// Spec turns a sample into the generator input. Channels grow as
// int(init * scale^i) for i in 0..stages. The repeat profile is truncated
// to the sampled stage count, and padded with its last value when shorter.
func Spec(s model.Sample, classCount int) topology.ArchitectureSpec {
	channels := make([]int, s.Stages+1)
	for i := range channels {
		channels[i] = int(float64(s.InitChannels) * math.Pow(s.ChannelScale, float64(i)))
	}

	return topology.ArchitectureSpec{
		ClassCount:   classCount,
		StageCount:   s.Stages,
		ChannelSizes: channels,
		BlockRepeats: FitRepeats(s.BlockRepeats, s.Stages),
		IncludePool:  s.IncludePool,
	}
}

// FitRepeats truncates profile to stages entries, or pads it with its last
// value. An empty profile yields zeros, which the generator rejects.
func FitRepeats(profile []int, stages int) []int {
	if stages <= 0 {
		return nil
	}
	repeats := make([]int, stages)
	for i := range repeats {
		switch {
		case i < len(profile):
			repeats[i] = profile[i]
		case len(profile) > 0:
			repeats[i] = profile[len(profile)-1]
		}
	}
	return repeats
}
