package services

import "context"

type contextKey int

const (
	ruleKey contextKey = iota
	broadcastKey
	stageKey
)

// WithRule annotates context with the subscription rule name.
func WithRule(ctx context.Context, name string) context.Context {
	return withString(ctx, ruleKey, name)
}

// RuleFromContext returns the rule name if present.
func RuleFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, ruleKey)
}

// WithBroadcast annotates context with the catalog id of the broadcast in flight.
func WithBroadcast(ctx context.Context, id string) context.Context {
	return withString(ctx, broadcastKey, id)
}

func BroadcastFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, broadcastKey)
}

// WithStage annotates context with the pipeline stage (download, convert, tag, retention).
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stageKey)
}

// Blank values leave ctx untouched so an outer annotation survives.
func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
