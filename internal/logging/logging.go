// Package logging builds the charmbracelet/log logger used by the CLI.
// DISCFG_LOG_LEVEL sets the default level and DISCFG_LOG_TO_FILE=1 sends
// output to a timestamped file instead of stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps a log.Logger and owns the log file FromEnv opened, if any.
type Logger struct {
	*log.Logger
	closer io.Closer
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Options configures New.
type Options struct {
	Level  string // debug, info, warn, error; empty means DISCFG_LOG_LEVEL or info
	Prefix string
}

// ParseLevel maps a level name to a log.Level. Unknown names are info.
func ParseLevel(s string) log.Level {
	if s == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) *Logger {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          opts.Prefix,
	})
	level := opts.Level
	if level == "" {
		level = os.Getenv("DISCFG_LOG_LEVEL")
	}
	lg.SetLevel(ParseLevel(level))

	return &Logger{Logger: lg}
}

// FromEnv creates a logger on w, or on discfg-<timestamp>.log when
// DISCFG_LOG_TO_FILE is "1". A file that cannot be created falls back to w.
func FromEnv(w io.Writer, opts Options) *Logger {
	if os.Getenv("DISCFG_LOG_TO_FILE") == "1" {
		name := fmt.Sprintf("discfg-%s.log", time.Now().Format("20060102-150405"))
		if f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644); err == nil {
			l := New(f, opts)
			l.closer = f
			return l
		}
	}
	return New(w, opts)
}
