package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// AuthContext is the verified identity of a caller. It is created only by a
// successful verification and is never mutated afterwards.
type AuthContext struct {
	// SubjectID identifies the caller (the token's sub claim).
	SubjectID string

	IssuedAt  time.Time
	ExpiresAt time.Time

	// Scopes lists the permissions granted by the token.
	Scopes []string
}

// HasScope reports whether the caller was granted scope.
func (a *AuthContext) HasScope(scope string) bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.Scopes, scope)
}

// Verifier validates the raw Authorization header of a request.
//
// Every failure is returned as an unauthorized *api.Error; the concrete
// reason is only available through errors.Unwrap for server-side logging.
type Verifier interface {
	Verify(ctx context.Context, authorization string) (*AuthContext, error)
}

// Sentinel errors.
var (
	ErrMissingBearer = errors.New("missing or malformed bearer token")
	ErrMissingClaim  = errors.New("token missing required claim")
)

// BearerToken extracts the token from an Authorization header of the form
// "Bearer <token>". The scheme is matched case-insensitively.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingBearer
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMissingBearer
	}
	return token, nil
}

// ContextFromClaims builds an AuthContext from verified claims. The subject is
// taken from the first non-empty claim in subjectClaims.
func ContextFromClaims(claims jwtlib.MapClaims, scopesClaim string, subjectClaims ...string) (*AuthContext, error) {
	var subject string
	for _, key := range subjectClaims {
		if subject = claimString(claims, key); subject != "" {
			break
		}
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingClaim, strings.Join(subjectClaims, "|"))
	}

	ac := &AuthContext{
		SubjectID: subject,
		Scopes:    ExtractScopes(claims, scopesClaim),
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		ac.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ac.ExpiresAt = exp.Time
	}
	return ac, nil
}

// claimString extracts a string value from JWT claims.
// Returns empty string if the claim is missing or not a string.
func claimString(claims jwtlib.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// ExtractScopes extracts scopes from JWT claims.
// The scope claim can be either a space-separated string or a JSON array.
func ExtractScopes(claims jwtlib.MapClaims, key string) []string {
	switch val := claims[key].(type) {
	case string:
		parts := strings.Fields(val)
		if len(parts) == 0 {
			return nil
		}
		return parts
	case []interface{}:
		var scopes []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
		return scopes
	}
	return nil
}
