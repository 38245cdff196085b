package tokenclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
)

// mockIdP is a token endpoint that records requests and answers with a
// configurable status and body.
type mockIdP struct {
	calls  atomic.Int32
	status int
	body   string
	delay  time.Duration

	mu    sync.Mutex
	last  tokenRequest
	ctype string
}

func (m *mockIdP) lastRequest() (tokenRequest, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.ctype
}

func (m *mockIdP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.calls.Add(1)
	var req tokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	m.mu.Lock()
	m.last, m.ctype = req, r.Header.Get("Content-Type")
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(m.status)
	w.Write([]byte(m.body))
}

func newClient(t *testing.T, idp *mockIdP, logger *slog.Logger) *Client {
	t.Helper()
	srv := httptest.NewServer(idp)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		TokenURL:     srv.URL + "/oauth/token",
		ClientID:     "client-id",
		ClientSecret: "super-secret-value",
		Audience:     "bookstore-api",
		Timeout:      200 * time.Millisecond,
		Logger:       logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func kindOf(t *testing.T, err error) api.Kind {
	t.Helper()
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *api.Error", err)
	}
	return apiErr.Kind
}

func TestClientCredentialsSuccess(t *testing.T) {
	idp := &mockIdP{status: http.StatusOK, body: `{"access_token":"tok","token_type":"Bearer","expires_in":86400}`}
	c := newClient(t, idp, nil)

	tok, err := c.ClientCredentials(context.Background())
	if err != nil {
		t.Fatalf("ClientCredentials: %v", err)
	}
	if tok.AccessToken != "tok" || tok.TokenType != "Bearer" || tok.ExpiresIn != 86400 {
		t.Errorf("token = %+v", tok)
	}
	last, ctype := idp.lastRequest()
	if ctype != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ctype)
	}
	if last.GrantType != GrantClientCredentials || last.ClientID != "client-id" ||
		last.ClientSecret != "super-secret-value" || last.Audience != "bookstore-api" {
		t.Errorf("request body = %+v", last)
	}
	if last.Username != "" || last.Password != "" {
		t.Error("client credentials grant must not carry user credentials")
	}
}

func TestServiceTokenReturnsAccessToken(t *testing.T) {
	idp := &mockIdP{status: http.StatusOK, body: `{"access_token":"svc","token_type":"Bearer"}`}
	c := newClient(t, idp, nil)

	tok, err := c.ServiceToken(context.Background())
	if err != nil {
		t.Fatalf("ServiceToken: %v", err)
	}
	if tok != "svc" {
		t.Errorf("token = %q, want svc", tok)
	}

	failing := newClient(t, &mockIdP{status: http.StatusInternalServerError, body: `{}`}, nil)
	if _, err := failing.ServiceToken(context.Background()); kindOf(t, err) != api.KindUpstream {
		t.Errorf("kind = %q, want upstream", kindOf(t, err))
	}
}

func TestPasswordGrantSendsUserCredentials(t *testing.T) {
	idp := &mockIdP{status: http.StatusOK, body: `{"access_token":"user-token"}`}
	c := newClient(t, idp, nil)

	tok, err := c.Password(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Password: %v", err)
	}
	if tok.AccessToken != "user-token" {
		t.Errorf("AccessToken = %q", tok.AccessToken)
	}
	last, _ := idp.lastRequest()
	if last.GrantType != GrantPassword || last.Username != "alice" || last.Password != "secret" {
		t.Errorf("request body = %+v", last)
	}
}

func TestFailuresAreUpstreamAndNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		delay  time.Duration
	}{
		{"server error", http.StatusInternalServerError, `{"error":"server_error"}`, 0},
		{"bad gateway", http.StatusBadGateway, ``, 0},
		{"client misconfigured", http.StatusUnauthorized, `{"error":"access_denied"}`, 0},
		{"malformed json", http.StatusOK, `{not json`, 0},
		{"missing access token", http.StatusOK, `{"token_type":"Bearer"}`, 0},
		{"timeout", http.StatusOK, `{"access_token":"late"}`, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idp := &mockIdP{status: tt.status, body: tt.body, delay: tt.delay}
			c := newClient(t, idp, nil)

			tok, err := c.ClientCredentials(context.Background())
			if tok != nil {
				t.Fatal("expected no token")
			}
			if k := kindOf(t, err); k != api.KindUpstream {
				t.Errorf("kind = %s, want upstream", k)
			}
			if n := idp.calls.Load(); n != 1 {
				t.Errorf("token endpoint called %d times, want exactly 1", n)
			}
		})
	}
}

func TestUnreachableEndpointIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{TokenURL: url + "/oauth/token", ClientID: "id", Timeout: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.ClientCredentials(context.Background())
	if k := kindOf(t, err); k != api.KindUpstream {
		t.Errorf("kind = %s, want upstream", k)
	}
}

func TestCancelledContextIsUpstream(t *testing.T) {
	idp := &mockIdP{status: http.StatusOK, body: `{"access_token":"x"}`, delay: time.Second}
	c := newClient(t, idp, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Password(ctx, "alice", "secret")
	if k := kindOf(t, err); k != api.KindUpstream {
		t.Errorf("kind = %s, want upstream", k)
	}
}

func TestPasswordRejectionIsUnauthorized(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"forbidden invalid_grant", http.StatusForbidden, `{"error":"invalid_grant","error_description":"Wrong email or password."}`},
		{"unauthorized access_denied", http.StatusUnauthorized, `{"error":"access_denied"}`},
		{"bad request invalid_grant", http.StatusBadRequest, `{"error":"invalid_grant"}`},
		{"forbidden invalid_request", http.StatusForbidden, `{"error":"invalid_request"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, &mockIdP{status: tt.status, body: tt.body}, nil)
			_, err := c.Password(context.Background(), "alice", "wrong")
			var apiErr *api.Error
			if !errors.As(err, &apiErr) || apiErr.Kind != api.KindUnauthorized {
				t.Fatalf("err = %v, want unauthorized", err)
			}
			if apiErr.Message != api.MessageInvalidCredentials {
				t.Errorf("Message = %q", apiErr.Message)
			}
		})
	}
}

func TestSecretsNeverLoggedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ok := newClient(t, &mockIdP{status: http.StatusOK, body: `{"access_token":"issued-token"}`}, logger)
	if _, err := ok.Password(context.Background(), "alice", "hunter2-password"); err != nil {
		t.Fatalf("Password: %v", err)
	}
	bad := newClient(t, &mockIdP{status: http.StatusInternalServerError, body: `{"error":"server_error"}`}, logger)
	_, _ = bad.Password(context.Background(), "alice", "hunter2-password")

	out := buf.String()
	for _, secret := range []string{"super-secret-value", "hunter2-password", "issued-token"} {
		if strings.Contains(out, secret) {
			t.Errorf("log output contains %q:\n%s", secret, out)
		}
	}
	if !strings.Contains(out, "token exchange completed") || !strings.Contains(out, "token exchange failed") {
		t.Errorf("expected attempt outcomes in log output:\n%s", out)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{ClientID: "id"}); err == nil {
		t.Error("expected error without token URL")
	}
	if _, err := New(Config{Domain: "tenant.auth0.com"}); err == nil {
		t.Error("expected error without client ID")
	}

	c, err := New(Config{Domain: "tenant.auth0.com", ClientID: "id"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.config.TokenURL != "https://tenant.auth0.com/oauth/token" {
		t.Errorf("TokenURL = %q", c.config.TokenURL)
	}
}
