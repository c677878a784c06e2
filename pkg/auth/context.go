package auth

import (
	"context"
	"slices"
	"time"
)

// Claims holds the validated token attributes attached to the request
// context by TokenMiddleware.
type Claims struct {
	Subject   string
	ClientID  string
	Scopes    []string
	Resources []string
	ExpiresAt time.Time
}

// ClaimsContextKey is the context key under which Claims are stored.
type ClaimsContextKey struct{}

// WithClaims returns a context carrying the given claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims attached by TokenMiddleware, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey{}).(*Claims)
	return claims, ok
}

// HasScopes reports whether the claims' scope set is a superset of required.
func (c *Claims) HasScopes(required ...string) bool {
	for _, want := range required {
		if !slices.Contains(c.Scopes, want) {
			return false
		}
	}
	return true
}

// HasResource reports whether the token was issued for the given resource.
func (c *Claims) HasResource(resource string) bool {
	return slices.Contains(c.Resources, resource)
}
