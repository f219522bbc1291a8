package types

import "context"

type trialContextKey string

// TrialContextKey trial context
var TrialContextKey = trialContextKey("trial-context")

// EnsureTrialContext ensure
func EnsureTrialContext(ctx context.Context, pairs ...string) context.Context {
	v := ctx.Value(TrialContextKey)
	if v == nil {
		ctx = context.WithValue(ctx, TrialContextKey, map[string]any{})
	}
	values := ctx.Value(TrialContextKey).(map[string]any)
	for i := 0; i+1 < len(pairs); i += 2 {
		values[pairs[i]] = pairs[i+1]
	}
	return ctx
}
