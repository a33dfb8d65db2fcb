package auth

import (
	"context"

	"github.com/makola-community/makola/pkg/domain/model"
)

type ctxRequesterKey struct{}

// ContextWithRequester stores the authenticated requester in the context
func ContextWithRequester(ctx context.Context, requester model.Requester) context.Context {
	return context.WithValue(ctx, ctxRequesterKey{}, requester)
}

// RequesterFromContext returns the requester stored by the auth middleware.
// The zero Requester, which is never authenticated, is returned when none is
// set.
func RequesterFromContext(ctx context.Context) model.Requester {
	if r, ok := ctx.Value(ctxRequesterKey{}).(model.Requester); ok {
		return r
	}
	return model.Requester{}
}
