package ui

// Basic ANSI color codes used by the logging package.
const (
	Reset      = "\033[0m"
	LegacyBold = "\033[1m"
	FgCyan     = "\033[36m"
	FgGreen    = "\033[32m"
	FgMagenta  = "\033[35m"
	FgYellow   = "\033[33m"
	FgRed      = "\033[31m"
)

// plain disables every ANSI sequence emitted by this package.
var plain bool

// Init configures the package from CLI flags. With noColor set, Color and
// all lipgloss-backed styles render their input unchanged.
func Init(noColor bool) { plain = noColor }

// Plain reports whether colored output is disabled.
func Plain() bool { return plain }

// Color wraps a string with the given ANSI code.
func Color(s string, code string) string {
	if plain || code == "" {
		return s
	}
	return code + s + Reset
}
