package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"

	"github.com/benoitkugler/microsvg/svgtree"
)

// newLogger creates a logger writing to w, and installs it as the
// destination of the library diagnostics.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	svgtree.SetLogger(slog.New(l))
	return l
}

// logLevel returns the level selected by the verbosity flags.
func logLevel(verbose, quiet bool) log.Level {
	switch {
	case quiet:
		return log.ErrorLevel
	case verbose:
		return log.DebugLevel
	default:
		return log.WarnLevel
	}
}

// timer logs the duration of the steps, when enabled.
type timer struct {
	logger  *log.Logger
	enabled bool
	start   time.Time
}

func newTimer(l *log.Logger, enabled bool) *timer {
	return &timer{logger: l, enabled: enabled, start: time.Now()}
}

// step logs the time elapsed since the previous step.
func (t *timer) step(name string) {
	if !t.enabled {
		return
	}
	now := time.Now()
	t.logger.Print(name, "elapsed", now.Sub(t.start).Round(time.Microsecond))
	t.start = now
}
