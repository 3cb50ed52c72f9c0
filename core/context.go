package core

import "context"

// Context keys for run options
type contextKey string

const (
	runIDKey contextKey = "runID"
)

// withRunID stores the ledger run ID in the context
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// runIDFrom returns the ledger run ID from context, or 0 when the run is not recorded
func runIDFrom(ctx context.Context) int64 {
	val := ctx.Value(runIDKey)
	if val == nil {
		return 0
	}
	id, ok := val.(int64)
	if !ok {
		return 0
	}
	return id
}
