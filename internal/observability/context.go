package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

const (
	traceIDBytes = 16 // OpenTelemetry trace ID size in bytes
	spanIDBytes  = 8  // OpenTelemetry span ID size in bytes
)

type logContextKey struct{}

// logContext is the set of correlation values carried by a context. It is
// copied on every change so a parent context never sees a child's values.
type logContext struct {
	traceID   string
	spanID    string
	requestID string
	sessionID string
	provider  string
	model     string
}

func loadLogContext(ctx context.Context) logContext {
	if lc, ok := ctx.Value(logContextKey{}).(logContext); ok {
		return lc
	}
	return logContext{}
}

func withLogContext(ctx context.Context, change func(*logContext)) context.Context {
	lc := loadLogContext(ctx)
	change(&lc)
	return context.WithValue(ctx, logContextKey{}, lc)
}

// WithTraceID injects trace ID into context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withLogContext(ctx, func(lc *logContext) { lc.traceID = traceID })
}

// WithSpanID injects span ID into context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return withLogContext(ctx, func(lc *logContext) { lc.spanID = spanID })
}

// WithRequestID injects request ID into context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withLogContext(ctx, func(lc *logContext) { lc.requestID = requestID })
}

// WithSessionID injects the playground session ID into context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return withLogContext(ctx, func(lc *logContext) { lc.sessionID = sessionID })
}

// WithProvider injects the completion provider name into context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return withLogContext(ctx, func(lc *logContext) { lc.provider = provider })
}

// WithModel injects the completion model name into context.
func WithModel(ctx context.Context, model string) context.Context {
	return withLogContext(ctx, func(lc *logContext) { lc.model = model })
}

// GetTraceID extracts trace ID from context.
func GetTraceID(ctx context.Context) string { return loadLogContext(ctx).traceID }

// GetSpanID extracts span ID from context.
func GetSpanID(ctx context.Context) string { return loadLogContext(ctx).spanID }

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string { return loadLogContext(ctx).requestID }

// GetSessionID extracts session ID from context.
func GetSessionID(ctx context.Context) string { return loadLogContext(ctx).sessionID }

// GetProvider extracts provider name from context.
func GetProvider(ctx context.Context) string { return loadLogContext(ctx).provider }

// GetModel extracts model name from context.
func GetModel(ctx context.Context) string { return loadLogContext(ctx).model }

// GenerateTraceID generates an OpenTelemetry-compatible trace ID (32 hex chars).
func GenerateTraceID() string {
	return randomHex(traceIDBytes)
}

// GenerateSpanID generates an OpenTelemetry-compatible span ID (16 hex chars).
func GenerateSpanID() string {
	return randomHex(spanIDBytes)
}

// GenerateRequestID generates a unique request identifier (UUID).
func GenerateRequestID() string {
	return uuid.New().String()
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// A UUID without dashes still carries 16 random bytes.
		id := uuid.New()
		return hex.EncodeToString(id[:])[:n*2]
	}
	return hex.EncodeToString(buf)
}
