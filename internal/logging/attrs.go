package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type Attr = slog.Attr

// Keys the console handler lifts out of the key=value tail into the line
// header.
const (
	// FieldService is the service name set once per process.
	FieldService = "service"
	// FieldComponent names the subsystem that emitted a record.
	FieldComponent = "component"
	// FieldState is the daemonization state a record was logged in.
	FieldState = "state"
)

const (
	// FieldEventType is a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldRunID ties together every record of one process run.
	FieldRunID = "run_id"
)

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WithRunID tags logger with a fresh run identifier and returns both.
func WithRunID(logger *slog.Logger) (*slog.Logger, string) {
	if logger == nil {
		logger = NewNop()
	}
	id := uuid.NewString()
	return logger.With(String(FieldRunID, id)), id
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
