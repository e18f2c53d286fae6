// Package kit holds small cross-package plumbing: the Endpoint signature
// shared by MCP tool handlers and the context keys used for correlating
// log lines across a run.
package kit

import "context"

// Endpoint is a transport-agnostic handler: typed request in, typed
// response out. Decoding from the wire happens in the transport adapter.
type Endpoint func(ctx context.Context, req any) (any, error)

type contextKey string

const (
	RunIDKey contextKey = "kit_run_id"
	StepKey  contextKey = "kit_step"
)

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

func GetRunID(ctx context.Context) string {
	v, _ := ctx.Value(RunIDKey).(string)
	return v
}

func WithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, StepKey, step)
}

func GetStep(ctx context.Context) string {
	v, _ := ctx.Value(StepKey).(string)
	return v
}
