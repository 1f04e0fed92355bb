// Package logging wires charmbracelet/log loggers through the render stack.
// Loggers are passed through context.Context so that the pipeline, the
// transform stage and the ffmpeg engine share one level and one output.
package logging

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a timestamped logger writing to w. Unknown levels fall back to info.
func New(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           ParseLevel(level),
	})
}

// ParseLevel maps debug/info/warn/error (case-insensitive) to a log level.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

type ctxKey int

const loggerKey ctxKey = 0

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or log.Default().
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// WithJob tags every record with the render job id.
func WithJob(l *log.Logger, jobID string) *log.Logger {
	return l.With("job_id", jobID)
}

// WithScene tags every record with the scene's playback index and key.
func WithScene(l *log.Logger, index int, key string) *log.Logger {
	return l.With("scene", index+1, "scene_key", key)
}
