// Package local verifies and issues HS256 tokens signed with a static
// shared secret. It backs the local login flow, where this service is its
// own token issuer.
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/debug"
)

// ErrEmptySecret is returned when no signing secret is configured.
var ErrEmptySecret = errors.New("local auth: secret must not be empty")

// Config holds the settings shared by Verifier and Signer.
type Config struct {
	// Secret is the HMAC key. Required.
	Secret []byte

	// Issuer is written to and, when set, required in the iss claim.
	Issuer string

	// Audience is written to and, when set, required in the aud claim.
	Audience string

	// TokenTTL is the lifetime of issued tokens. Default: 1 hour.
	TokenTTL time.Duration

	// Leeway tolerates clock skew when checking exp and iat. Default: 30s.
	Leeway time.Duration

	// Now overrides the clock (useful for testing).
	Now func() time.Time
}

func (c *Config) applyDefaults() {
	if c.TokenTTL == 0 {
		c.TokenTTL = time.Hour
	}
	if c.Leeway == 0 {
		c.Leeway = 30 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Verifier checks HS256 bearer tokens.
type Verifier struct {
	config Config
}

// NewVerifier creates a Verifier. The secret is required.
func NewVerifier(cfg Config) (*Verifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	cfg.applyDefaults()
	return &Verifier{config: cfg}, nil
}

// Verify implements auth.Verifier.
func (v *Verifier) Verify(_ context.Context, authorization string) (*auth.AuthContext, error) {
	raw, err := auth.BearerToken(authorization)
	if err != nil {
		return nil, api.NewUnauthorizedError(err)
	}

	claims := jwtlib.MapClaims{}
	_, err = jwtlib.ParseWithClaims(raw, claims, func(token *jwtlib.Token) (interface{}, error) {
		return v.config.Secret, nil
	}, v.parserOptions()...)
	if err != nil {
		debug.Log("auth", "local token validation failed", "error", err)
		return nil, api.NewUnauthorizedError(fmt.Errorf("invalid token: %w", err))
	}

	// Tokens issued before subjects were introduced only carry userId.
	ac, err := auth.ContextFromClaims(claims, "scope", "sub", "userId")
	if err != nil {
		return nil, api.NewUnauthorizedError(err)
	}
	return ac, nil
}

func (v *Verifier) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithIssuedAt(),
		jwtlib.WithLeeway(v.config.Leeway),
		jwtlib.WithTimeFunc(v.config.Now),
	}
	if v.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(v.config.Audience))
	}
	return opts
}

// Signer issues HS256 tokens.
type Signer struct {
	config Config
}

// NewSigner creates a Signer. The secret is required.
func NewSigner(cfg Config) (*Signer, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	cfg.applyDefaults()
	return &Signer{config: cfg}, nil
}

// Sign issues a token for subject carrying the given scopes.
func (s *Signer) Sign(subject string, scopes []string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("local auth: subject must not be empty")
	}
	now := s.config.Now()
	claims := jwtlib.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(s.config.TokenTTL).Unix(),
	}
	if len(scopes) > 0 {
		claims["scope"] = strings.Join(scopes, " ")
	}
	if s.config.Issuer != "" {
		claims["iss"] = s.config.Issuer
	}
	if s.config.Audience != "" {
		claims["aud"] = s.config.Audience
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
