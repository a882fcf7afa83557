package topology

import (
	"errors"
	"fmt"
)

// Supported stage-count range for generated descriptions.
const (
	MinStages = 3
	MaxStages = 5
)

// ArchitectureSpec holds the structural hyperparameters of one candidate
// detector. A spec is built once per search trial and never mutated.
type ArchitectureSpec struct {
	ClassCount   int   `json:"class_count"`
	StageCount   int   `json:"stage_count"`
	ChannelSizes []int `json:"channel_sizes"`
	BlockRepeats []int `json:"block_repeats"`
	IncludePool  bool  `json:"include_pool"`
}

// InvalidSpecError reports a spec that the generator cannot turn into a
// description. Callers are expected to resample rather than retry.
type InvalidSpecError struct {
	Field  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid architecture spec: %s: %s", e.Field, e.Reason)
}

// IsInvalidSpec reports whether err is (or wraps) an *InvalidSpecError.
func IsInvalidSpec(err error) bool {
	var ise *InvalidSpecError
	return errors.As(err, &ise)
}

func invalid(field, format string, args ...any) error {
	return &InvalidSpecError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the architecture invariants. The first violation is returned.
func (s ArchitectureSpec) Validate() error {
	if s.ClassCount <= 0 {
		return invalid("class_count", "must be positive, got %d", s.ClassCount)
	}
	if s.StageCount < MinStages || s.StageCount > MaxStages {
		return invalid("stage_count", "only %d to %d stages are supported, got %d", MinStages, MaxStages, s.StageCount)
	}
	if len(s.ChannelSizes) != s.StageCount+1 {
		return invalid("channel_sizes", "expected %d entries for %d stages, got %d", s.StageCount+1, s.StageCount, len(s.ChannelSizes))
	}
	if len(s.BlockRepeats) != s.StageCount {
		return invalid("block_repeats", "expected %d entries for %d stages, got %d", s.StageCount, s.StageCount, len(s.BlockRepeats))
	}
	for i, c := range s.ChannelSizes {
		if c <= 0 {
			return invalid("channel_sizes", "entry %d must be positive, got %d", i, c)
		}
	}
	for i, r := range s.BlockRepeats {
		if r <= 0 {
			return invalid("block_repeats", "entry %d must be positive, got %d", i, r)
		}
	}
	return nil
}

// MaxChannels returns the widest channel size of s.
func (s ArchitectureSpec) MaxChannels() int {
	m := 0
	for _, c := range s.ChannelSizes {
		if c > m {
			m = c
		}
	}
	return m
}
