package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds operation-scoped logging context
type LogContext struct {
	TraceID     string    // correlation ID for the enclosing operation
	SpanID      string    // sub-operation ID
	Transport   string    // transport kind: hid, can
	InterfaceID string    // Session.InterfaceID()
	Operation   string    // high level operation name: authenticate, restart, update, ...
	StartTime   time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a session's operations
func NewLogContext(transport, interfaceID string) *LogContext {
	return &LogContext{
		Transport:   transport,
		InterfaceID: interfaceID,
		StartTime:   time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:     lc.TraceID,
		SpanID:      lc.SpanID,
		Transport:   lc.Transport,
		InterfaceID: lc.InterfaceID,
		Operation:   lc.Operation,
		StartTime:   lc.StartTime,
	}
}

// WithOperation returns a copy with the operation name set
func (lc *LogContext) WithOperation(operation string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = operation
	}
	return clone
}

// WithTransport returns a copy with the transport kind and interface ID set
func (lc *LogContext) WithTransport(transport, interfaceID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Transport = transport
		clone.InterfaceID = interfaceID
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// WithTransport returns a context carrying a LogContext for the given
// transport kind and interface ID, creating one if none is present yet.
func WithTransport(ctx context.Context, transport, interfaceID string) context.Context {
	lc := FromContext(ctx)
	if lc == nil {
		lc = NewLogContext(transport, interfaceID)
	} else {
		lc = lc.WithTransport(transport, interfaceID)
	}
	return WithContext(ctx, lc)
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
