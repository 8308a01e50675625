package runtime

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}

// ContextWithRunID attaches the id Execute stamps on every event.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run id attached to ctx, if any.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// NewRunID returns a fresh run id.
func NewRunID() string {
	return uuid.NewString()
}
