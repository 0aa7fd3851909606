// Package logging builds the application logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tfmusic/workflow-assistant/internal/config"
)

// Logger wraps the configured logger and the file it writes to, if any.
type Logger struct {
	*log.Logger
	file *os.File
	Path string
}

// Setup creates the logger described by cfg and installs it as the default.
// In debug mode it keeps logging to stderr; otherwise it appends to
// cfg.Log.File, or to the log file under the data directory.
func Setup(cfg *config.Config, paths *config.Paths) (*Logger, error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	l := &Logger{}
	var out io.Writer = os.Stderr
	if !cfg.Debug {
		path := cfg.Log.File
		if path == "" {
			path = paths.LogFile()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		l.file = f
		l.Path = path
		out = f
	}

	l.Logger = New(out, level)
	log.SetDefault(l.Logger)
	return l, nil
}

// New creates a logger writing to w at level.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "tfassist",
	})
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
