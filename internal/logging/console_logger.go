package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Markers printed before success and failure lines.
const (
	successMarker = "✓"
	failureMarker = "✗"
)

// ConsoleLogger writes one diagnostic line per call to an io.Writer.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	w       io.Writer
	verbose bool
	mu      sync.Mutex

	success *color.Color
	failure *color.Color
	detail  *color.Color
}

// NewConsoleLogger creates a ConsoleLogger writing to w.
// If verbose is false, Verbose() calls are no-ops. If colored is false,
// no escape sequences are written.
func NewConsoleLogger(w io.Writer, verbose, colored bool) *ConsoleLogger {
	l := &ConsoleLogger{
		w:       w,
		verbose: verbose,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
		detail:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{l.success, l.failure, l.detail} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return l
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.detail.Fprintln(l.w, "[VERBOSE] "+fmt.Sprintf(format, args...))
}

// Info logs a plain progress line.
func (l *ConsoleLogger) Info(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, fmt.Sprintf(format, args...))
}

// Success logs a line prefixed with a check mark.
func (l *ConsoleLogger) Success(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.success.Fprintln(l.w, successMarker+" "+fmt.Sprintf(format, args...))
}

// Error logs a line prefixed with a cross.
func (l *ConsoleLogger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failure.Fprintln(l.w, failureMarker+" "+fmt.Sprintf(format, args...))
}

// ColorEnabled resolves a color mode against the output file. "auto"
// enables color only for a terminal and honors NO_COLOR.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case types.ColorOn:
		return true
	case types.ColorOff:
		return false
	default:
		if os.Getenv("NO_COLOR") != "" || f == nil {
			return false
		}
		return term.IsTerminal(int(f.Fd()))
	}
}

var _ types.Logger = (*ConsoleLogger)(nil)
