package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

// ClaimsKey is the context key for token claims
const ClaimsKey contextKey = "claims"

// Claims is the authenticated identity attached to a request
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Sub      string `json:"sub"`
	Iss      string `json:"iss"`
	Exp      int64  `json:"exp"`
	Iat      int64  `json:"iat"`
}

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetClaimsFromContext retrieves token claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds token claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
