package auth

import (
	"context"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
)

type contextKey string

const principalKey contextKey = "fitness-tracker-principal"

// WithPrincipal stores the principal on the context.
func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// FromContext retrieves the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(domain.Principal)
	return principal, ok
}
