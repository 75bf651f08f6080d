// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// OwnerIDKey is the context key for the authenticated owner (agent) ID
	OwnerIDKey contextKey = "owner_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger that writes to w. Development uses the text
// handler at debug level, everything else JSON at info level.
func NewWithWriter(env string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything. Used by tests and tools.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext returns a logger with request_id and owner_id extracted from ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if ownerID, ok := ctx.Value(OwnerIDKey).(string); ok && ownerID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("owner_id", ownerID)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// StageTransition records a pipeline move. Jumps of more than one position are
// logged at warn level so manual skips stand out in the audit stream.
func (l *Logger) StageTransition(leadID, actorID, from, to string, distance int) {
	attrs := []any{
		slog.String("lead_id", leadID),
		slog.String("actor_id", actorID),
		slog.String("from_stage", from),
		slog.String("to_stage", to),
		slog.Int("distance", distance),
	}
	if distance > 1 || distance < -1 {
		l.Warn("pipeline_stage_jump", attrs...)
		return
	}
	l.Info("pipeline_stage_changed", attrs...)
}

// StageRejected logs an advance request the state machine refused.
func (l *Logger) StageRejected(leadID, stage, reason string) {
	l.Info("pipeline_stage_rejected",
		slog.String("lead_id", leadID),
		slog.String("stage", stage),
		slog.String("reason", reason),
	)
}

// AnalyticsRun logs one aggregation over an owner's lead set.
func (l *Logger) AnalyticsRun(ownerID string, leads int, took time.Duration) {
	l.Debug("pipeline_analytics_run",
		slog.String("owner_id", ownerID),
		slog.Int("leads", leads),
		slog.Float64("took_ms", float64(took.Microseconds())/1000),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
