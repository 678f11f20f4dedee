package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return &Logger{Logger: l}
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// NewFileLogger creates a logger that writes to a file
func NewFileLogger(path string, level log.Level) (*Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	l := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})

	cleanup := func() {
		f.Close()
	}

	return &Logger{Logger: l}, cleanup, nil
}

// NewMultiLogger creates a logger that writes to multiple outputs
func NewMultiLogger(level log.Level, writers ...io.Writer) *Logger {
	w := io.MultiWriter(writers...)
	return NewWithLevel(w, level)
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// ParseLevel maps a config level name to a log level. Unknown names fall
// back to info.
func ParseLevel(name string) log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// ParseCompleted logs the outcome of converting one document
func (l *Logger) ParseCompleted(inputBytes, blocks int, duration time.Duration) {
	l.Debug("parse completed",
		"bytes", inputBytes,
		"blocks", blocks,
		"duration", duration.Round(time.Microsecond))
}

// TagDropped logs a tag that could not be placed in the tree
func (l *Logger) TagDropped(tag string, offset int, reason string) {
	l.Debug("tag dropped",
		"tag", tag,
		"offset", offset,
		"reason", reason)
}

// ConversionError logs a tag whose conversion failed and was replaced
func (l *Logger) ConversionError(tag string, offset int, err error) {
	l.Warn("conversion failed",
		"tag", tag,
		"offset", offset,
		"error", err)
}

// BlocksSubmitted logs a successful append of children to a parent
func (l *Logger) BlocksSubmitted(parentID string, blocks, batches int) {
	l.Info("blocks submitted",
		"parent", parentID,
		"blocks", blocks,
		"batches", batches)
}

// PageCreated logs a page creation
func (l *Logger) PageCreated(pageID, title, parentID string) {
	l.Info("page created",
		"page", pageID,
		"title", title,
		"parent", parentID)
}

// FileSkipped logs when a file is skipped
func (l *Logger) FileSkipped(file, reason string) {
	l.Debug("file skipped",
		"file", file,
		"reason", reason)
}

// FileError logs an error for a specific file
func (l *Logger) FileError(file string, err error) {
	l.Error("file error",
		"file", file,
		"error", err)
}

// WatchStarted logs the start of a directory watch
func (l *Logger) WatchStarted(dir string, debounce time.Duration) {
	l.Info("watch started",
		"dir", dir,
		"debounce", debounce)
}

// StateError logs a state-related error
func (l *Logger) StateError(operation string, err error) {
	l.Error("state error",
		"operation", operation,
		"error", err)
}

// ConfigLoaded logs successful config loading
func (l *Logger) ConfigLoaded(path, baseURL string, interval time.Duration) {
	l.Debug("config loaded",
		"path", path,
		"api", baseURL,
		"interval", interval)
}

// FilePushed logs a file whose blocks reached a page
func (l *Logger) FilePushed(file, pageID string, blocks int) {
	l.Info("file pushed",
		"file", file,
		"page", pageID,
		"blocks", blocks)
}
