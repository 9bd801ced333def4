package auth

import "context"

type contextKey struct{}

// WithClaims returns a copy of ctx carrying the authenticated claims.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, error) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	if !ok || c == nil {
		return nil, ErrNoClaims
	}
	return c, nil
}

// UserIDFromContext returns the authenticated user ID, or "" when the
// context carries no claims.
func UserIDFromContext(ctx context.Context) string {
	c, err := ClaimsFromContext(ctx)
	if err != nil {
		return ""
	}
	return c.UserID()
}
