package logging

import (
	"context"
	"log/slog"

	"platepipe/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldGroup is the standardized structured logging key for rendered group keys.
	FieldGroup = "group"
	// FieldCorrelationID is the standardized structured logging key for task correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags lifecycle events (stage_start, stage_complete, task_failed).
	FieldEventType = "event_type"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if group, ok := services.GroupFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldGroup, group))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}

// WithStage annotates the context with the stage name for downstream loggers.
func WithStage(ctx context.Context, stage string) context.Context {
	return services.WithStage(ctx, stage)
}

// WithGroup annotates the context with the rendered group key.
func WithGroup(ctx context.Context, group string) context.Context {
	return services.WithGroup(ctx, group)
}
