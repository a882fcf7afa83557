package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/idlab-discover/tinynas-cli/internal/ui"
)

// Logger is a tiny opt-in logger used across internal packages.
// When Writer is nil, logging is disabled.
//
// The output format is:
//
//	<ColoredPrefix> <SubjectKey>=<subject> <formattedMessage>\n
//
// where <subject> is trimmed and defaults to "-". SubjectKey defaults to
// "trial".
type Logger struct {
	Writer io.Writer

	PrefixText  string
	PrefixColor string
	SubjectKey  string

	// OmitSubject drops the subject field entirely.
	OmitSubject bool
}

func (l *Logger) SetWriter(w io.Writer) { l.Writer = w }

func (l *Logger) Enabled() bool { return l != nil && l.Writer != nil }

func (l *Logger) Logf(subject string, format string, args ...any) {
	if l == nil || l.Writer == nil {
		return
	}
	prefix := l.PrefixText
	if prefix == "" {
		prefix = "Log:"
	}
	if l.PrefixColor != "" {
		prefix = ui.Color(prefix, l.PrefixColor)
	}
	msg := fmt.Sprintf(format, args...)
	if l.OmitSubject {
		fmt.Fprintf(l.Writer, "%s %s\n", prefix, msg)
		return
	}

	key := l.SubjectKey
	if key == "" {
		key = "trial"
	}
	s := strings.TrimSpace(subject)
	if s == "" {
		s = "-"
	}
	fmt.Fprintf(l.Writer, "%s %s=%s %s\n", prefix, key, s, msg)
}
