// Package trainer adapts external training tools to the search driver.
//
// A Trainer consumes an architecture description file and reports the
// detection quality and footprint of the trained model. The search never
// trains in-process: Ultralytics, an arbitrary command or the dry-run
// estimator do the work.
package trainer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

// Trainer trains one candidate and measures it.
type Trainer interface {
	Train(ctx context.Context, req Request) (model.Metrics, error)
}

// Request describes one training job.
type Request struct {
	DescriptionPath string
	Dataset         string
	Epochs          int
	ImageSize       int
	Batch           int
	Optimizer       string
	Project         string
	Name            string
}

// RunName is Name, or "<model>_<dataset>" built from the file stems when
// Name is empty.
func (r Request) RunName() string {
	if r.Name != "" {
		return r.Name
	}
	return stem(r.DescriptionPath) + "_" + stem(r.Dataset)
}

// RunDir is the directory the trainer writes its artifacts to.
func (r Request) RunDir() string {
	return filepath.Join(r.Project, r.RunName())
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
