// Package color provides terminal color output support for sgov.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

var state struct {
	once       sync.Once
	enabled    atomic.Bool
	overridden atomic.Bool
}

// Init initializes the color system from the environment and the --no-color
// flag. Only the first call has effect unless Enable/Disable override it.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		if state.overridden.Load() {
			return
		}
		disabled := noColorFlag
		if _, exists := os.LookupEnv("NO_COLOR"); exists {
			disabled = true
		}
		if os.Getenv("TERM") == "dumb" {
			disabled = true
		}
		state.enabled.Store(!disabled)
	})
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	Init(false)
	return state.enabled.Load()
}

// Disable turns off color output.
func Disable() {
	state.overridden.Store(true)
	state.enabled.Store(false)
}

// Enable turns on color output.
func Enable() {
	state.overridden.Store(true)
	state.enabled.Store(true)
}

// ANSI color codes
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	DimCode = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m"

	Orange = "\033[38;5;208m"
)

func wrap(code, s string) string {
	if !Enabled() {
		return s
	}
	return code + s + Reset
}

// Error formats an error message in red.
func Error(s string) string { return wrap(Red, s) }

// Success formats a success message in green.
func Success(s string) string { return wrap(Green, s) }

// Successf formats a success message with printf-style arguments.
func Successf(format string, args ...any) string {
	return Success(fmt.Sprintf(format, args...))
}

// Warning formats a warning message in yellow.
func Warning(s string) string { return wrap(Yellow, s) }

// Warningf formats a warning message with printf-style arguments.
func Warningf(format string, args ...any) string {
	return Warning(fmt.Sprintf(format, args...))
}

// Header formats a header in bold.
func Header(s string) string { return wrap(Bold, s) }

// Dim formats dimmed text (for secondary information).
func Dim(s string) string { return wrap(DimCode, s) }

var statusCodes = map[string]string{
	"suspicious": Yellow,
	"pending":    Orange,
	"notified":   Red,
	"review":     Magenta,
	"disabled":   Gray,
	"resolved":   Green,
}

// Status colors s with the terminal color of a status code. Unknown codes
// are left uncolored.
func Status(code, s string) string {
	c, ok := statusCodes[code]
	if !ok {
		return s
	}
	return wrap(c, s)
}
