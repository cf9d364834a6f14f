package logging

import (
	"context"
	"log/slog"

	"radiograb/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRule is the standardized key for subscription rule names.
	FieldRule = "rule"
	// FieldBroadcastID is the standardized key for catalog broadcast identifiers.
	FieldBroadcastID = "broadcast_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldRunID carries the identifier of one invocation; the logger stamps it.
	FieldRunID = "run_id"
	// FieldItemIndex is the 1-based position of an item within the run.
	FieldItemIndex = "item_index"
	// FieldItemCount is the total number of items in the run.
	FieldItemCount = "item_count"
	// FieldEventType classifies a record for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the decision a stage made (download, convert, ...).
	FieldDecisionType   = "decision_type"
	FieldDecisionResult = "decision_result"
	FieldDecisionReason = "decision_reason"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rule, ok := services.RuleFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRule, rule))
	}
	if id, ok := services.BroadcastFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBroadcastID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return logger.With(args...)
}
