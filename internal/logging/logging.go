// Package logging configures edfgen's structured logger: a
// logrus.TextFormatter emitting key=value lines (time, level, msg, plus a
// name field), always writing to a rotating file via lumberjack, plus an
// optional console hook. Lines are not rendered in the
// "timestamp - name - level - message" dash-separated shape.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how the logger writes.
type Config struct {
	// FilePath is the rotating log file's path. Required.
	FilePath string
	// MaxSizeMB is the size in megabytes a log file is rotated at.
	MaxSizeMB int
	// MaxBackups is how many rotated files are retained.
	MaxBackups int
	// MaxAgeDays is how long rotated files are retained, in days.
	MaxAgeDays int
	// Quiet suppresses the console hook; the file hook is always installed.
	Quiet bool
	// Level is the minimum level logged, e.g. logrus.InfoLevel.
	Level logrus.Level
}

// DefaultConfig returns sane rotation defaults for a long-running
// generation job.
func DefaultConfig(filePath string) Config {
	return Config{
		FilePath:   filePath,
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 28,
		Level:      logrus.InfoLevel,
	}
}

// New builds a *logrus.Logger per cfg. The returned logger's formatter
// renders logrus key=value lines (time=... level=... msg=... name=...),
// not a dash-separated "timestamp - name - level - message" line; "name"
// is supplied by callers as a field, e.g.
// log.WithField("name", "search").Info(...).
func New(cfg Config) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(cfg.Level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		DisableColors:   true,
	})

	fileSink := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	var out io.Writer = fileSink
	if !cfg.Quiet {
		out = io.MultiWriter(fileSink, os.Stderr)
	}
	log.SetOutput(out)

	return log
}

// WithName returns an entry carrying the "name" field, e.g.
// logging.WithName(log, "search").
func WithName(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("name", name)
}
