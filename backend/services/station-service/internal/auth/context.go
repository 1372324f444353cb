package auth

import (
	"context"

	"cdm/backend/services/station-service/internal/models"
)

type contextKey string

const contextKeyActor contextKey = "auth.actor"

// WithActor stores the resolved actor in ctx.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, contextKeyActor, actor)
}

// ActorFromContext extracts the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	if ctx == nil {
		return models.Actor{}, false
	}
	actor, ok := ctx.Value(contextKeyActor).(models.Actor)
	return actor, ok
}
