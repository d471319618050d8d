package middleware

import "context"

// actorKey is the key used to store who triggered an operation, recorded in audit fields.
const actorKey = contextKey("actor")

// SystemActor is recorded when no actor is attached to the context.
const SystemActor = "system"

// WithActor returns a copy of ctx carrying the acting user or process name.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActorFromCtx retrieves the actor from the context, falling back to SystemActor.
func GetActorFromCtx(ctx context.Context) string {
	actor, ok := ctx.Value(actorKey).(string)
	if !ok || actor == "" {
		return SystemActor
	}
	return actor
}
