package trainer

import (
	"fmt"
	"io"
	"time"
)

// Options configures the trainer built by New.
type Options struct {
	Binary    string
	Device    string
	ExtraArgs []string

	Command string
	Args    []string
	Paths   MetricPaths

	DummyDelay time.Duration

	Output io.Writer
}

// Kinds lists the trainer backends New accepts.
var Kinds = []string{"ultralytics", "command", "dummy"}

// New returns the trainer for kind.
func New(kind string, opts Options) (Trainer, error) {
	switch kind {
	case "", "ultralytics":
		return &UltralyticsTrainer{Binary: opts.Binary, Device: opts.Device, ExtraArgs: opts.ExtraArgs, Output: opts.Output}, nil
	case "command":
		if opts.Command == "" {
			return nil, fmt.Errorf("command trainer requires a command")
		}
		return &CommandTrainer{Command: opts.Command, Args: opts.Args, Paths: opts.Paths, Output: opts.Output}, nil
	case "dummy":
		return &DummyTrainer{Delay: opts.DummyDelay}, nil
	default:
		return nil, fmt.Errorf("unsupported trainer: %s", kind)
	}
}
