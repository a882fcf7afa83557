package search

import "github.com/idlab-discover/tinynas-cli/internal/model"

// ProgressCallback is called by the driver as trials advance. It may be
// invoked from several goroutines at once.
type ProgressCallback func(event ProgressEvent)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Type   ProgressEventType
	Trial  int
	Total  int
	Sample model.Sample
	Path   string
	Score  float64
	// Feasible is set on EventTrialComplete.
	Feasible bool
	Error    error
}

// ProgressEventType identifies the type of progress event
type ProgressEventType int

const (
	EventTrialStart ProgressEventType = iota
	EventDescriptionWritten
	EventTrialComplete
	EventTrialFailed
)
