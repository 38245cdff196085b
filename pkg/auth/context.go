package auth

import "context"

// authContextKey is a private type for the auth context key.
type authContextKey struct{}

// SetAuthContext stores the verified caller in the context.
func SetAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, ac)
}

// FromContext retrieves the verified caller.
// Returns nil on public routes and before authentication.
func FromContext(ctx context.Context) *AuthContext {
	if v, ok := ctx.Value(authContextKey{}).(*AuthContext); ok {
		return v
	}
	return nil
}
