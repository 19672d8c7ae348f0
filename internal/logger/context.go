package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context.
var logContextKey = contextKey{}

// LogContext holds operation-scoped logging context: the service an
// operation targets, and the correlation/trace ids that tie a chain of
// supervisor and registry calls together in the logs.
type LogContext struct {
	TraceID       string // OpenTelemetry trace ID
	SpanID        string // OpenTelemetry span ID
	CorrelationID string // per-operation correlation id (assigned at the CLI/API boundary)
	ServiceName   string // target service, e.g. antnode3
	Operation     string // add_node, start, stop, upgrade, remove
	UserMode      bool
	StartTime     time.Time // for duration calculation
}

// WithContext returns a new context carrying the given LogContext.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for an operation against the given
// service.
func NewLogContext(serviceName string) *LogContext {
	return &LogContext{
		ServiceName: serviceName,
		StartTime:   time.Now(),
	}
}

// Clone creates a copy of the LogContext.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithOperation returns a copy with the operation name set.
func (lc *LogContext) WithOperation(operation string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = operation
	}
	return clone
}

// WithUserMode returns a copy with the user-mode flag set.
func (lc *LogContext) WithUserMode(userMode bool) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.UserMode = userMode
	}
	return clone
}

// WithTrace returns a copy with trace info set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// WithCorrelationID returns a copy with the correlation id set.
func (lc *LogContext) WithCorrelationID(id string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.CorrelationID = id
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
