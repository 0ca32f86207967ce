// Package logger builds the process logrus logger with optional file rotation.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // trace, debug, info, warn, error
	Format string // json, text
	Output string // stdout, file, both

	// rotation, only used when Output includes file
	Path       string
	File       string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultConfig returns text/debug for development and json/info otherwise.
func DefaultConfig(env string) LogConfig {
	cfg := LogConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		Path:       "./logs",
		File:       "app.log",
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   true,
	}
	if env == "" || env == "development" || env == "dev" {
		cfg.Level = "debug"
		cfg.Format = "text"
	}
	return cfg
}

// New creates a logger from cfg. Failing to open the log directory falls back
// to stdout only.
func New(cfg LogConfig) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				s := strings.Split(f.Function, ".")
				return s[len(s)-1], fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
			},
		})
	}

	var writers []io.Writer
	if cfg.Output == "stdout" || cfg.Output == "both" || cfg.Output == "" {
		writers = append(writers, os.Stdout)
	}
	if cfg.Output == "file" || cfg.Output == "both" {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			log.WithError(err).Warn("log directory unavailable, logging to stdout")
			if len(writers) == 0 {
				writers = append(writers, os.Stdout)
			}
		} else {
			writers = append(writers, &lumberjack.Logger{
				Filename:   filepath.Join(cfg.Path, cfg.File),
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			})
		}
	}
	log.SetOutput(io.MultiWriter(writers...))

	return log
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type ctxKey struct{}

// RequestIDKey is the context key the request-id middleware stores under.
var RequestIDKey = ctxKey{}

// WithContext returns an entry carrying the request id from ctx, if any.
func WithContext(ctx context.Context, log logrus.FieldLogger) *logrus.Entry {
	entry := log.WithFields(logrus.Fields{})
	if ctx == nil {
		return entry
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		entry = entry.WithField("request_id", id)
	}
	return entry
}
