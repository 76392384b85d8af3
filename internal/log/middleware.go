package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context, falling back to slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides domain-specific log helpers
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs a finished request. Level follows the status class.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogExpenseCreated(ctx context.Context, id int64, itemName, amount string) {
	fields := NewFields().
		WithExpense(id, itemName, amount).
		WithOperation(OpCreate).
		WithComponent(ComponentExpense)

	sl.logger.Logger.InfoContext(ctx, "Expense created", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogExpenseDeleted(ctx context.Context, id int64) {
	fields := NewFields().
		WithExpense(id, "", "").
		WithOperation(OpDelete).
		WithComponent(ComponentExpense)

	sl.logger.Logger.InfoContext(ctx, "Expense deleted", fields.ToSlice()...)
}

// LogError logs an error with structured context. fields may be nil.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}

// LogRejected records a request refused with a 4xx, at debug level.
func (sl *StructuredLogger) LogRejected(ctx context.Context, msg string, err error, errorType, operation string) {
	fields := NewFields().
		WithError(err).
		WithErrorType(errorType).
		WithOperation(operation).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.DebugContext(ctx, msg, fields.ToSlice()...)
}
