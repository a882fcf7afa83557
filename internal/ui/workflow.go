package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const frameInterval = 80 * time.Millisecond

// TaskStatus is the state of one line of a Workflow.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskDone
	TaskFailed
	TaskSkipped
)

var statusNames = [...]string{"pending", "running", "done", "failed", "skipped"}

func (s TaskStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return statusNames[TaskPending]
	}
	return statusNames[s]
}

// look returns the icon, name style and message style of a status. frame
// is the spinner frame for running tasks, or "" when nothing animates.
func (s TaskStatus) look(frame string) (string, styleWrapper, styleWrapper) {
	switch s {
	case TaskRunning:
		if frame == "" {
			return Muted.Render("○"), StepPending, Dim
		}
		return Secondary.Render(frame), StepRunning, Secondary
	case TaskDone:
		return GetCheckMark(), StepComplete, Dim
	case TaskFailed:
		return GetCrossMark(), StepFailed, Error
	case TaskSkipped:
		return Warning.Render("⊘"), StepSkipped, Warning
	default:
		return Muted.Render("○"), StepPending, Dim
	}
}

// Task is one line of a Workflow. Message is shown while the task runs and
// after it fails or is skipped; Details after it completes.
type Task struct {
	Name    string
	Status  TaskStatus
	Message string
	Details string

	started time.Time
	elapsed time.Duration
}

func (t *Task) finish(status TaskStatus) {
	t.Status = status
	if !t.started.IsZero() {
		t.elapsed = time.Since(t.started).Round(time.Second)
	}
}

func (t *Task) line(frame string, final bool) string {
	icon, nameStyle, msgStyle := t.Status.look(frame)
	out := icon + " " + nameStyle.Render(t.Name)
	if !final {
		if t.Message != "" {
			out += " " + msgStyle.Render(t.Message)
		}
		return out
	}
	switch {
	case t.Status == TaskDone && t.Details != "":
		out += " " + Dim.Render("→ "+t.Details)
	case (t.Status == TaskFailed || t.Status == TaskSkipped) && t.Message != "":
		out += " " + msgStyle.Render("→ "+t.Message)
	}
	if t.elapsed > 0 {
		out += " " + Muted.Render("("+t.elapsed.String()+")")
	}
	return out
}

// Workflow is a live list of tasks redrawn in place. In plain mode nothing
// is drawn until Stop prints the final state.
type Workflow struct {
	writer io.Writer
	title  string

	mu       sync.Mutex
	tasks    []*Task
	frame    int
	drawn    int
	started  time.Time
	running  bool
	stopChan chan struct{}
}

// NewWorkflow creates a workflow; an empty title omits the header line.
func NewWorkflow(w io.Writer, title string) *Workflow {
	return &Workflow{writer: w, title: title, stopChan: make(chan struct{})}
}

// AddTask appends a pending task and returns its index.
func (wf *Workflow) AddTask(name string) int {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	wf.tasks = append(wf.tasks, &Task{Name: name})
	return len(wf.tasks) - 1
}

// with runs fn on task idx under the lock; unknown indexes are ignored.
func (wf *Workflow) with(idx int, fn func(*Task)) {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	if idx >= 0 && idx < len(wf.tasks) {
		fn(wf.tasks[idx])
	}
}

func (wf *Workflow) StartTask(idx int, message string) {
	wf.with(idx, func(t *Task) {
		t.Status, t.Message, t.started = TaskRunning, message, time.Now()
	})
}

func (wf *Workflow) UpdateMessage(idx int, message string) {
	wf.with(idx, func(t *Task) { t.Message = message })
}

func (wf *Workflow) CompleteTask(idx int, details string) {
	wf.with(idx, func(t *Task) {
		t.Details = details
		t.finish(TaskDone)
	})
}

func (wf *Workflow) FailTask(idx int, errMsg string) {
	wf.with(idx, func(t *Task) {
		t.Message = errMsg
		t.finish(TaskFailed)
	})
}

// SkipTask marks a task that will not finish, such as a trial cut short by
// an interrupt.
func (wf *Workflow) SkipTask(idx int, reason string) {
	wf.with(idx, func(t *Task) {
		t.Message = reason
		t.finish(TaskSkipped)
	})
}

// Status returns the status of task idx, TaskPending when unknown.
func (wf *Workflow) Status(idx int) TaskStatus {
	status := TaskPending
	wf.with(idx, func(t *Task) { status = t.Status })
	return status
}

// Start begins redrawing the task list.
func (wf *Workflow) Start() {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	if wf.running {
		return
	}
	wf.running = true
	wf.started = time.Now()
	go wf.animate()
}

func (wf *Workflow) animate() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-wf.stopChan:
			return
		case <-ticker.C:
			wf.mu.Lock()
			if !wf.running {
				wf.mu.Unlock()
				return
			}
			wf.frame = (wf.frame + 1) % len(spinnerFrames)
			if !plain {
				wf.redraw(false)
			}
			wf.mu.Unlock()
		}
	}
}

// Stop halts the animation and prints the final state once.
func (wf *Workflow) Stop() {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	if !wf.running {
		return
	}
	wf.running = false
	close(wf.stopChan)
	wf.redraw(true)
}

// redraw replaces the previously drawn lines. Callers hold wf.mu.
func (wf *Workflow) redraw(final bool) {
	var b strings.Builder
	if !plain {
		b.WriteString(strings.Repeat("\033[A\033[K", wf.drawn))
	}
	frame := ""
	if !final {
		frame = spinnerFrames[wf.frame]
	}
	if final && wf.title != "" {
		elapsed := time.Since(wf.started).Round(time.Millisecond)
		fmt.Fprintf(&b, "%s %s\n", Title.Render(wf.title), Muted.Render("("+elapsed.String()+")"))
	}
	for _, t := range wf.tasks {
		b.WriteString(t.line(frame, final))
		b.WriteByte('\n')
	}
	wf.drawn = len(wf.tasks)
	fmt.Fprint(wf.writer, b.String())
}

// SimpleSpinner animates a single line until Stop replaces it with a
// check or cross mark.
type SimpleSpinner struct {
	writer  io.Writer
	message string

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewSimpleSpinner(w io.Writer, message string) *SimpleSpinner {
	return &SimpleSpinner{writer: w, message: message, stop: make(chan struct{}), done: make(chan struct{})}
}

func (s *SimpleSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.spin()
}

func (s *SimpleSpinner) spin() {
	defer close(s.done)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for i := 1; ; i++ {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if plain {
				continue
			}
			fmt.Fprintf(s.writer, "\r\033[K%s %s", Secondary.Render(spinnerFrames[i%len(spinnerFrames)]), s.message)
		}
	}
}

// Stop ends the animation and prints finalMessage as a result line.
func (s *SimpleSpinner) Stop(success bool, finalMessage string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	if !plain {
		fmt.Fprint(s.writer, "\r\033[K")
	}
	if success {
		fmt.Fprintf(s.writer, "%s %s\n", GetCheckMark(), finalMessage)
		return
	}
	fmt.Fprintf(s.writer, "%s %s\n", GetCrossMark(), Error.Render(finalMessage))
}
