// Package model holds the records shared by the search driver, the trial
// store and the reporting commands.
package model

import (
	"fmt"
	"time"

	"github.com/idlab-discover/tinynas-cli/internal/topology"
)

// VersionedRecord stamps persisted records with the schema and codec they
// were written with.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Metrics are the quantities a trainer reports for one candidate.
type Metrics struct {
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	MAP50       float64 `json:"map50"`
	ParamsM     float64 `json:"params_m"`
	GFLOPs      float64 `json:"gflops"`
	SizeKB      float64 `json:"size_kb"`
	WeightsPath string  `json:"weights_path,omitempty"`
}

// Constraints are the deployment limits a candidate must satisfy to keep
// its score.
type Constraints struct {
	MaxModelSizeKB float64 `json:"max_model_size_kb"`
	MaxParamsM     float64 `json:"max_params_m"`
	MaxGFLOPs      float64 `json:"max_gflops"`
}

// DefaultConstraints targets microcontroller-class deployments.
func DefaultConstraints() Constraints {
	return Constraints{MaxModelSizeKB: 900, MaxParamsM: 0.5, MaxGFLOPs: 3.0}
}

// Allows reports whether m is within every limit. Limits are inclusive.
func (c Constraints) Allows(m Metrics) bool {
	return m.SizeKB <= c.MaxModelSizeKB && m.ParamsM <= c.MaxParamsM && m.GFLOPs <= c.MaxGFLOPs
}

// Sample is one point of the search space.
type Sample struct {
	Stages       int     `json:"stages"`
	InitChannels int     `json:"init_channel"`
	ChannelScale float64 `json:"scale"`
	BlockRepeats []int   `json:"c2f_repeats"`
	IncludePool  bool    `json:"include_sppf"`
}

func (s Sample) String() string {
	return fmt.Sprintf("stages=%d init=%d scale=%.1f repeats=%v pool=%t",
		s.Stages, s.InitChannels, s.ChannelScale, s.BlockRepeats, s.IncludePool)
}

// TrialStatus is the lifecycle state of a trial.
type TrialStatus string

const (
	TrialPending  TrialStatus = "pending"
	TrialRunning  TrialStatus = "running"
	TrialComplete TrialStatus = "complete"
	TrialFailed   TrialStatus = "failed"
)

// Trial is one evaluated candidate of a run.
type Trial struct {
	VersionedRecord
	RunID           string                    `json:"run_id"`
	Number          int                       `json:"number"`
	Params          Sample                    `json:"params"`
	Spec            topology.ArchitectureSpec `json:"spec"`
	DescriptionPath string                    `json:"yaml_path"`
	Metrics         Metrics                   `json:"metrics"`
	Score           float64                   `json:"score"`
	Feasible        bool                      `json:"feasible"`
	// Values are the objective values (score, size_kb, params_m); the
	// directions are maximize, minimize, minimize.
	Values   [3]float64  `json:"values"`
	Status   TrialStatus `json:"status"`
	Error    string      `json:"error,omitempty"`
	Started  time.Time   `json:"started"`
	Finished time.Time   `json:"finished"`
}

// Completed reports whether the trial produced objective values.
func (t Trial) Completed() bool { return t.Status == TrialComplete }

// Duration is the wall time spent on the trial.
func (t Trial) Duration() time.Duration {
	if t.Started.IsZero() || t.Finished.IsZero() {
		return 0
	}
	return t.Finished.Sub(t.Started)
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunComplete  RunStatus = "complete"
	RunCancelled RunStatus = "cancelled"
	RunFailed    RunStatus = "failed"
)

// RunConfig records the settings a run was started with.
type RunConfig struct {
	Trials      int         `json:"trials"`
	Epochs      int         `json:"epochs"`
	ImageSize   int         `json:"imgsz"`
	ClassCount  int         `json:"nc"`
	Dataset     string      `json:"dataset"`
	Trainer     string      `json:"trainer"`
	Seed        uint64      `json:"seed"`
	Parallel    int         `json:"parallel"`
	Constraints Constraints `json:"constraints"`
}

// Run is one search study.
type Run struct {
	VersionedRecord
	ID       string    `json:"id"`
	Config   RunConfig `json:"config"`
	Status   RunStatus `json:"status"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitempty"`
}
