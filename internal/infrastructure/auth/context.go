package auth

import "context"

type contextKey string

// claimsKey is the context key under which validated JWT claims are
// stored for downstream permission checks
const claimsKey contextKey = "jwt_claims"

// WithClaims returns a context carrying the validated JWT claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext retrieves the validated JWT claims from the
// context, or nil if none were stored.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}
