package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// SearchUI renders per-trial progress for the search command.
type SearchUI struct {
	writer   io.Writer
	quiet    bool
	workflow *Workflow

	mu    sync.Mutex
	tasks map[int]int
	title string
}

// NewSearchUI creates a new UI handler for the search command
func NewSearchUI(w io.Writer, quiet bool) *SearchUI {
	return &SearchUI{writer: w, quiet: quiet, tasks: make(map[int]int)}
}

// Start prints the run header and starts the spinner.
func (s *SearchUI) Start(runID string, trials int) {
	if s.quiet {
		return
	}
	fmt.Fprintln(s.writer, Title.Render("Architecture search")+" "+Dim.Render(fmt.Sprintf("run %s · %d trial(s)", runID, trials)))
	s.workflow = NewWorkflow(s.writer, "")
	s.workflow.Start()
}

func (s *SearchUI) task(number int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.tasks[number]; ok {
		return idx
	}
	idx := s.workflow.AddTask(fmt.Sprintf("Trial %d", number))
	s.tasks[number] = idx
	return idx
}

// TrialStarted marks a trial as running with a short description of its spec.
func (s *SearchUI) TrialStarted(number int, summary string) {
	if s.quiet || s.workflow == nil {
		return
	}
	s.workflow.StartTask(s.task(number), Dim.Render(summary))
}

// TrialTraining updates the trial line while the external trainer runs.
func (s *SearchUI) TrialTraining(number int, path string) {
	if s.quiet || s.workflow == nil {
		return
	}
	s.workflow.UpdateMessage(s.task(number), Dim.Render("training "+path))
}

// TrialDone marks a trial as complete.
func (s *SearchUI) TrialDone(number int, score float64, feasible bool) {
	if s.quiet || s.workflow == nil {
		return
	}
	details := fmt.Sprintf("score %.4f", score)
	if !feasible {
		details += " (constraints violated)"
	}
	s.workflow.CompleteTask(s.task(number), details)
}

// TrialFailed marks a trial as failed, or as skipped when the search was
// interrupted under it.
func (s *SearchUI) TrialFailed(number int, err error) {
	if s.quiet || s.workflow == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		s.workflow.SkipTask(s.task(number), "interrupted")
		return
	}
	s.workflow.FailTask(s.task(number), err.Error())
}

// Stop renders the final state of every trial.
func (s *SearchUI) Stop() {
	if s.quiet || s.workflow == nil {
		return
	}
	s.workflow.Stop()
}

// LogStep prints a standalone status line.
func (s *SearchUI) LogStep(status, message string) {
	if s.quiet {
		return
	}
	fmt.Fprintln(s.writer, FormatStatus(status, message))
}
