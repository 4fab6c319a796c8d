// Package auth binds requests to a tenant through JWT bearer tokens
// validated against JWKS endpoints.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// ErrTenantMismatch is returned when a request names a tenant other than the token's.
var ErrTenantMismatch = errors.New("tenant mismatch between token and request")

// Claims embeds RegisteredClaims and adds the tenant binding.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string   `json:"tid,omitempty"`   // Tenant the caller may query
	Email    string   `json:"email,omitempty"` // User email address
	Roles    []string `json:"roles,omitempty"` // User roles within the tenant
}

// WithClaims stores claims and the raw token in ctx.
func WithClaims(ctx context.Context, claims *Claims, token string) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, TokenKey, token)
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// GetUserIDFromContext returns the token subject, or "" when unauthenticated.
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok {
		return ""
	}
	return claims.Subject
}

// AuthorizeTenant checks tenantID against the claims in ctx. Requests without
// claims pass; routes that need a token are wrapped with RequireAuth.
func AuthorizeTenant(ctx context.Context, tenantID string) error {
	claims, ok := GetClaims(ctx)
	if !ok {
		return nil
	}
	if claims.TenantID == "" {
		return fmt.Errorf("%w: token carries no tenant", ErrTenantMismatch)
	}
	if claims.TenantID != tenantID {
		return ErrTenantMismatch
	}
	return nil
}
