// Package logging builds the process logger. Every component receives a
// logrus.FieldLogger so tests can swap in a buffer or a discard logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Config selects level, output format and sink.
type Config struct {
	Level  string // debug|info|warn|error; unknown values fall back to info
	Format string // json|text
	File   string // optional file sink, appended to; empty means Output
	Output io.Writer
}

// New returns a configured logger and a close func for the file sink.
// The close func is never nil.
func New(cfg Config) (*logrus.Logger, func() error, error) {
	logger := logrus.New()

	switch cfg.Format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	closeFn := func() error { return nil }
	switch {
	case cfg.File != "":
		f, openErr := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if openErr != nil {
			return nil, closeFn, fmt.Errorf("logging: open %s: %w", cfg.File, openErr)
		}
		logger.SetOutput(f)
		closeFn = f.Close
	case cfg.Output != nil:
		logger.SetOutput(cfg.Output)
	default:
		// stdout carries the MCP stdio stream, so logs must stay off it.
		logger.SetOutput(os.Stderr)
	}

	return logger, closeFn, nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
