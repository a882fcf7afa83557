package search

import (
	"io"

	"github.com/idlab-discover/tinynas-cli/internal/logging"
	"github.com/idlab-discover/tinynas-cli/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Search:", PrefixColor: ui.FgCyan}

// SetLogger sets an optional destination for search logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(trial string, format string, args ...any) {
	logger.Logf(trial, format, args...)
}
