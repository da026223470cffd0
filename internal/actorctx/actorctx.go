// Package actorctx carries the authenticated caller on a request context,
// for code below the gin layer.
package actorctx

import (
	"context"

	"github.com/geocoder89/accounthub/internal/domain/user"
)

type ctxKey struct{}

type Actor struct {
	UserID string
	Role   user.Role
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)

	return a, ok && a.UserID != ""
}
