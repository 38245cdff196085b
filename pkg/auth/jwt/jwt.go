// Package jwt verifies bearer tokens issued by an external identity
// provider. Signatures are checked against the provider's JWKS, which is
// fetched and refreshed in the background by keyfunc.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/debug"
)

// Config holds the delegated verifier configuration.
type Config struct {
	// Domain is the identity provider's host (e.g. "tenant.eu.auth0.com").
	// Used to derive Issuer when Issuer is empty.
	Domain string

	// Issuer is the expected iss claim. Required unless Domain is set.
	Issuer string

	// Audience is the expected aud claim. Required.
	Audience string

	// JWKSURL is the key set location. Default: <Issuer>.well-known/jwks.json.
	JWKSURL string

	// ScopesClaim is the claim carrying granted scopes. Default: "scope".
	ScopesClaim string

	// RefreshInterval controls periodic JWKS refresh. Default: 1 hour.
	RefreshInterval time.Duration

	// Leeway tolerates clock skew. Default: 30s.
	Leeway time.Duration

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	HTTPClient *http.Client
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Issuer == "" && c.Domain != "" {
		c.Issuer = IssuerFromDomain(c.Domain)
	}
	if c.JWKSURL == "" && c.Issuer != "" {
		c.JWKSURL = strings.TrimSuffix(c.Issuer, "/") + "/.well-known/jwks.json"
	}
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = time.Hour
	}
	if c.Leeway == 0 {
		c.Leeway = 30 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
}

// IssuerFromDomain normalises a provider domain into an issuer URL with a
// trailing slash, the form providers put in the iss claim.
func IssuerFromDomain(domain string) string {
	d := strings.TrimSuffix(strings.TrimSpace(domain), "/")
	if !strings.HasPrefix(d, "https://") && !strings.HasPrefix(d, "http://") {
		d = "https://" + d
	}
	return d + "/"
}

// Verifier validates RS256/384/512 tokens against a JWKS.
type Verifier struct {
	config Config
	jwks   *keyfunc.JWKS
}

// New creates a delegated verifier and performs the initial JWKS fetch.
// The background refresh stops when ctx is cancelled or Close is called.
func New(ctx context.Context, cfg Config) (*Verifier, error) {
	cfg.applyDefaults()
	if cfg.Issuer == "" {
		return nil, errors.New("jwt: issuer or domain is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("jwt: audience is required")
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		Ctx:               ctx,
		Client:            cfg.HTTPClient,
		RefreshInterval:   cfg.RefreshInterval,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			slog.Warn("JWKS refresh failed", "url", cfg.JWKSURL, "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: fetching JWKS from %s: %w", cfg.JWKSURL, err)
	}

	return &Verifier{config: cfg, jwks: jwks}, nil
}

// Verify implements auth.Verifier.
func (v *Verifier) Verify(_ context.Context, authorization string) (*auth.AuthContext, error) {
	raw, err := auth.BearerToken(authorization)
	if err != nil {
		return nil, api.NewUnauthorizedError(err)
	}

	claims := jwtlib.MapClaims{}
	token, err := jwtlib.ParseWithClaims(raw, claims, v.jwks.Keyfunc, v.parserOptions()...)
	if err != nil || !token.Valid {
		debug.Log("auth", "JWT validation failed", "error", err)
		return nil, api.NewUnauthorizedError(fmt.Errorf("invalid JWT: %w", err))
	}

	ac, err := auth.ContextFromClaims(claims, v.config.ScopesClaim, "sub")
	if err != nil {
		return nil, api.NewUnauthorizedError(err)
	}
	return ac, nil
}

// Close stops the background JWKS refresh.
func (v *Verifier) Close() {
	v.jwks.EndBackground()
}

// parserOptions builds JWT parser options based on the configuration.
func (v *Verifier) parserOptions() []jwtlib.ParserOption {
	return []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwtlib.WithIssuer(v.config.Issuer),
		jwtlib.WithAudience(v.config.Audience),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(v.config.Leeway),
	}
}
