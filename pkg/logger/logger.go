package logger

import (
	"context"

	"go.uber.org/zap"

	"github.com/bbuilders/actionbot/pkg/trace"
)

// NewLogger builds the production zap logger used by every component.
// Components receive it by injection; nothing reads a package-level instance.
func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// WithTrace returns a child logger carrying the run's trace_id, if any.
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
