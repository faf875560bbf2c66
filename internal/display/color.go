// Package display renders prayer tables, countdowns and the Qibla compass
// for the terminal.
//
// Styling uses raw ANSI codes. It is off when NO_COLOR is set or stdout is
// not a terminal, and forced on by FORCE_COLOR.
package display

import (
	"os"

	"github.com/mattn/go-isatty"
)

const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"
	red   = "\033[31m"
	cyan  = "\033[36m"
)

var enabled = detect()

func detect() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetEnabled overrides the detected state. --json output and tests turn
// styling off.
func SetEnabled(b bool) {
	enabled = b
}

// Enabled reports whether styling is on. The watch loop also uses it to
// decide between redrawing one line and printing one line per change.
func Enabled() bool {
	return enabled
}

func wrap(code, text string) string {
	if !enabled {
		return text
	}
	return code + text + reset
}

// Bold is used for titles and table headers.
func Bold(text string) string {
	return wrap(bold, text)
}

// Dim marks prayers that already passed today.
func Dim(text string) string {
	return wrap(dim, text)
}

// Red marks the placeholder shown while the timetable cannot be fetched.
func Red(text string) string {
	return wrap(red, text)
}

// Accent highlights the next prayer and today's row.
func Accent(text string) string {
	return wrap(bold+cyan, text)
}
