package main

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with short timestamps writing to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// logLevel picks the level from the configured name and the
// --verbose/--quiet switches, which win.
func logLevel(name string, verbose, quiet bool) (log.Level, error) {
	switch {
	case verbose:
		return log.DebugLevel, nil
	case quiet:
		return log.ErrorLevel, nil
	case name == "":
		return log.InfoLevel, nil
	}
	return log.ParseLevel(name)
}

// progress logs the elapsed time of a step when it completes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}
