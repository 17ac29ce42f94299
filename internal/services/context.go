package services

import "context"

type actorKey struct{}

// WithActor records the administrator performing the call.
func WithActor(ctx context.Context, adminID uint) context.Context {
	return context.WithValue(ctx, actorKey{}, adminID)
}

func ActorFrom(ctx context.Context) uint {
	id, _ := ctx.Value(actorKey{}).(uint)
	return id
}
