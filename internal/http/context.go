package http

import "context"

type contextKey string

const principalContextKey contextKey = "principal"

// Principal identifies the user making the request.
type Principal struct {
	UserID string
}

// ContextWithPrincipal returns a derived context carrying the request's principal.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the request principal from context if available.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(Principal)
	return principal, ok
}
