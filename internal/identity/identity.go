// Package identity carries the acting user through a request context.
package identity

import "context"

// SystemActor stamps writes made by schedulers, the CLI and workflow actions
// that run without a user.
const SystemActor = "system"

type actorKey struct{}

func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the acting user id, or SystemActor when none is set.
func ActorFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey{}).(string); ok && id != "" {
		return id
	}
	return SystemActor
}
