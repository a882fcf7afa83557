package bom

import (
	"io"

	"github.com/idlab-discover/tinynas-cli/internal/logging"
	"github.com/idlab-discover/tinynas-cli/internal/ui"
)

var logger = &logging.Logger{PrefixText: "BOM:", PrefixColor: ui.FgGreen, SubjectKey: "model"}

// SetLogger sets an optional destination for BOM logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(subject string, format string, args ...any) {
	logger.Logf(subject, format, args...)
}
