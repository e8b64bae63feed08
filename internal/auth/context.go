package auth

import "context"

type contextKey struct{}

type sessionContext struct {
	claims *Claims
	token  string
}

// WithClaims attaches a verified session to ctx
func WithClaims(ctx context.Context, claims *Claims, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, sessionContext{claims: claims, token: token})
}

// ClaimsFrom returns the verified session claims and raw token stored in ctx
func ClaimsFrom(ctx context.Context) (*Claims, string, bool) {
	s, ok := ctx.Value(contextKey{}).(sessionContext)
	if !ok || s.claims == nil {
		return nil, "", false
	}
	return s.claims, s.token, true
}
