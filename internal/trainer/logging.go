package trainer

import (
	"io"

	"github.com/idlab-discover/tinynas-cli/internal/logging"
	"github.com/idlab-discover/tinynas-cli/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Train:", PrefixColor: ui.FgMagenta, SubjectKey: "run"}

// SetLogger sets an optional destination for trainer logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(run string, format string, args ...any) {
	logger.Logf(run, format, args...)
}
