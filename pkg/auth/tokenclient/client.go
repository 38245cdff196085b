// Package tokenclient obtains bearer tokens from an identity provider's
// OAuth token endpoint.
//
// Each call performs exactly one POST with a JSON body. Failures are never
// retried: a network error, timeout, cancellation or unusable answer is
// returned as an upstream error, except a credential rejection on the
// password grant, which is returned as unauthorized.
package tokenclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth/jwt"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/debug"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/observability"
)

// GrantType is an OAuth 2.0 grant.
type GrantType string

const (
	GrantClientCredentials GrantType = "client_credentials"
	GrantPassword          GrantType = "password"
)

// maxResponseSize bounds how much of the token endpoint's answer is read.
const maxResponseSize = 1 << 20

// Config holds the token client configuration.
type Config struct {
	// TokenURL is the token endpoint. Default: <Domain issuer>oauth/token.
	TokenURL string

	// Domain is the identity provider's host, used to derive TokenURL.
	Domain string

	ClientID     string
	ClientSecret string
	Audience     string

	// Scope is requested as a space-separated string when non-empty.
	Scope string

	// Timeout bounds each exchange. Default: 10s.
	Timeout time.Duration

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	HTTPClient *http.Client

	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.TokenURL == "" && c.Domain != "" {
		c.TokenURL = jwt.IssuerFromDomain(c.Domain) + "oauth/token"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Token is a bearer token returned by the identity provider.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

// tokenRequest is the JSON body sent to the token endpoint.
type tokenRequest struct {
	GrantType    GrantType `json:"grant_type"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Audience     string    `json:"audience,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	Username     string    `json:"username,omitempty"`
	Password     string    `json:"password,omitempty"`
}

// oauthError is the error body defined by RFC 6749 section 5.2.
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Client exchanges credentials for tokens. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	config Config
}

// New creates a token client.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	if cfg.TokenURL == "" {
		return nil, errors.New("tokenclient: token URL or domain is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("tokenclient: client ID is required")
	}
	return &Client{config: cfg}, nil
}

// ClientCredentials obtains a token for this service itself.
func (c *Client) ClientCredentials(ctx context.Context) (*Token, error) {
	return c.exchange(ctx, tokenRequest{GrantType: GrantClientCredentials})
}

// ServiceToken returns the access token of a client-credentials exchange.
func (c *Client) ServiceToken(ctx context.Context) (string, error) {
	tok, err := c.ClientCredentials(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Password obtains a token on behalf of a resource owner.
func (c *Client) Password(ctx context.Context, username, password string) (*Token, error) {
	return c.exchange(ctx, tokenRequest{
		GrantType: GrantPassword,
		Username:  username,
		Password:  password,
	})
}

func (c *Client) exchange(ctx context.Context, body tokenRequest) (*Token, error) {
	body.ClientID = c.config.ClientID
	body.ClientSecret = c.config.ClientSecret
	body.Audience = c.config.Audience
	body.Scope = c.config.Scope

	start := time.Now()
	token, status, err := c.do(ctx, body)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = string(api.Classify(err).Kind)
	}
	observability.TokenExchangesTotal.WithLabelValues(string(body.GrantType), outcome).Inc()
	observability.TokenExchangeDuration.WithLabelValues(string(body.GrantType)).Observe(elapsed.Seconds())

	attrs := []slog.Attr{
		slog.String("grant_type", string(body.GrantType)),
		slog.String("outcome", outcome),
		slog.Int("status", status),
		slog.Duration("duration", elapsed),
	}
	if err != nil {
		c.config.Logger.LogAttrs(ctx, slog.LevelWarn, "token exchange failed", attrs...)
		c.config.Logger.Debug("token exchange failure detail", "error", err)
		return nil, err
	}
	c.config.Logger.LogAttrs(ctx, slog.LevelInfo, "token exchange completed", attrs...)
	return token, nil
}

// do performs the HTTP round trip. The returned status is 0 when no answer
// was received.
func (c *Client) do(ctx context.Context, body tokenRequest) (*Token, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, api.NewInternalError(fmt.Errorf("encoding token request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, api.NewInternalError(fmt.Errorf("creating token request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, api.NewUpstreamError("", fmt.Errorf("token request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, api.NewUpstreamError("", fmt.Errorf("reading token response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		debug.Trace("auth", "token endpoint rejection", "status", resp.StatusCode, "body", debug.Truncate(string(data), 512))
		return nil, resp.StatusCode, classifyRejection(body.GrantType, resp.StatusCode, data)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, resp.StatusCode, api.NewUpstreamError("", fmt.Errorf("parsing token response: %w", err))
	}
	if token.AccessToken == "" {
		return nil, resp.StatusCode, api.NewUpstreamError("", errors.New("token response missing access_token"))
	}
	return &token, resp.StatusCode, nil
}

// classifyRejection turns a non-2xx answer into a classified error. Only a
// password grant refused for the user's credentials is unauthorized;
// everything else means the provider or this service's client
// configuration is at fault.
func classifyRejection(grant GrantType, status int, data []byte) error {
	var oerr oauthError
	_ = json.Unmarshal(data, &oerr)
	cause := fmt.Errorf("token endpoint returned status %d: %s", status, oerr.Error)

	if grant == GrantPassword && (status == http.StatusUnauthorized || status == http.StatusForbidden) {
		switch strings.ToLower(oerr.Error) {
		case "invalid_grant", "access_denied", "invalid_request", "invalid_user_password", "":
			return api.NewInvalidCredentialsError(cause)
		}
	}
	if grant == GrantPassword && status == http.StatusBadRequest && strings.EqualFold(oerr.Error, "invalid_grant") {
		return api.NewInvalidCredentialsError(cause)
	}
	return api.NewUpstreamError("", cause)
}
