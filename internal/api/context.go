package api

import (
	"context"

	"github.com/hyperengineering/hydro/internal/types"
)

// identityContextKey is the context key for the authenticated identity.
type identityContextKey struct{}

// WithIdentity returns a new context with the identity attached.
func WithIdentity(ctx context.Context, id types.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from the context.
// Returns the empty identity if none is present, which every service call
// rejects as unauthenticated.
func IdentityFromContext(ctx context.Context) types.Identity {
	id, _ := ctx.Value(identityContextKey{}).(types.Identity)
	return id
}
