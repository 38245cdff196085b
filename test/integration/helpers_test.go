// Package integration provides integration tests for the bookstore API.
//
// Tests run against fully wired API servers started in-process using
// net/http/httptest: one issuing its own tokens, one delegating to a mock
// identity provider that serves a token endpoint and a JWKS.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/app"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/config"
)

const (
	seedFile    = "../../data/seed.json"
	writeScope  = "write:catalog"
	audience    = "bookstore-api"
	idpKeyID    = "integration-key"
	idpUser     = "jdoe"
	idpPassword = "password123"
)

var (
	localEnv     *TestEnvironment
	delegatedEnv *TestEnvironment
)

// TestEnvironment holds an API server and, in delegated mode, the mock
// identity provider it trusts.
type TestEnvironment struct {
	API *httptest.Server
	IdP *mockIdP

	app *app.App
}

// TestMain starts both environments before running tests.
func TestMain(m *testing.M) {
	localEnv = setupLocalEnvironment()
	delegatedEnv = setupDelegatedEnvironment()
	code := m.Run()
	localEnv.Teardown()
	delegatedEnv.Teardown()
	os.Exit(code)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupLocalEnvironment() *TestEnvironment {
	cfg := config.Defaults()
	cfg.Auth.Local.Secret = "integration-secret"
	cfg.Auth.WriteScopes = []string{writeScope}
	cfg.Storage.SeedFile = seedFile
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("local config: %v", err))
	}
	return startEnvironment(&cfg, nil)
}

func setupDelegatedEnvironment() *TestEnvironment {
	idp := newMockIdP()

	cfg := config.Defaults()
	cfg.Auth.Mode = config.AuthModeDelegated
	cfg.Auth.WriteScopes = []string{writeScope}
	cfg.Auth.Delegated = config.DelegatedAuthConfig{
		Issuer:              idp.Issuer(),
		Audience:            audience,
		TokenURL:            idp.server.URL + "/oauth/token",
		ClientID:            "bookstore-client",
		ClientSecret:        "bookstore-client-secret",
		ScopesClaim:         "scope",
		Timeout:             2 * time.Second,
		ServiceTokenOnWrite: true,
	}
	cfg.Storage.SeedFile = seedFile
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("delegated config: %v", err))
	}
	return startEnvironment(&cfg, idp)
}

func startEnvironment(cfg *config.Config, idp *mockIdP) *TestEnvironment {
	a, err := app.New(context.Background(), cfg, quietLogger())
	if err != nil {
		panic(fmt.Sprintf("creating app: %v", err))
	}
	return &TestEnvironment{API: httptest.NewServer(a.Handler), IdP: idp, app: a}
}

// Teardown stops the servers and releases the app.
func (env *TestEnvironment) Teardown() {
	if env.API != nil {
		env.API.Close()
	}
	if env.app != nil {
		env.app.Close()
	}
	if env.IdP != nil {
		env.IdP.server.Close()
	}
}

// BaseURL returns the API server base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.API.URL
}

// --- mock identity provider ---

// mockIdP signs RS256 tokens for one user and one client and publishes the
// matching key set.
type mockIdP struct {
	server *httptest.Server
	key    *rsa.PrivateKey

	// failClientCredentials makes the client credentials grant return 500.
	failClientCredentials atomic.Bool
	clientGrants          atomic.Int32
}

func newMockIdP() *mockIdP {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(fmt.Sprintf("generating key: %v", err))
	}
	idp := &mockIdP{key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/jwks.json", idp.handleJWKS)
	mux.HandleFunc("POST /oauth/token", idp.handleToken)
	idp.server = httptest.NewServer(mux)
	return idp
}

// Issuer is the iss claim of every token, in the trailing-slash form
// identity providers use.
func (idp *mockIdP) Issuer() string {
	return idp.server.URL + "/"
}

func (idp *mockIdP) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	pub := idp.key.PublicKey
	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": idpKeyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jwks)
}

func (idp *mockIdP) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GrantType string `json:"grant_type"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		Audience  string `json:"audience"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	var subject, scope string
	switch req.GrantType {
	case "password":
		if req.Username != idpUser || req.Password != idpPassword {
			writeOAuthError(w, http.StatusForbidden, "invalid_grant")
			return
		}
		subject, scope = "1", writeScope
	case "client_credentials":
		idp.clientGrants.Add(1)
		if idp.failClientCredentials.Load() {
			writeOAuthError(w, http.StatusInternalServerError, "server_error")
			return
		}
		subject = "bookstore-client@clients"
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type")
		return
	}

	token, err := idp.sign(subject, scope, time.Hour)
	if err != nil {
		writeOAuthError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

// sign issues a token for subject. A negative ttl yields an expired token.
func (idp *mockIdP) sign(subject, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtlib.MapClaims{
		"iss": idp.Issuer(),
		"aud": audience,
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if scope != "" {
		claims["scope"] = scope
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
	tok.Header["kid"] = idpKeyID
	return tok.SignedString(idp.key)
}

func writeOAuthError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// --- HTTP helpers ---

// doJSON sends a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

// getURL sends a GET request without credentials.
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodGet, url, "", nil)
}

// decodeBody decodes and closes the response body.
func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return v
}

// expectStatus fails the test when the status differs, closing the body.
func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, want, body)
	}
}

// expectMessage checks an error response status and its message.
func expectMessage(t *testing.T, resp *http.Response, status int, message string) {
	t.Helper()
	expectStatus(t, resp, status)
	body := decodeBody[map[string]any](t, resp)
	if body["message"] != message {
		t.Errorf("message = %v, want %q", body["message"], message)
	}
	if len(body) != 1 {
		t.Errorf("error body has extra fields: %v", body)
	}
}

// login exchanges username and password for a token.
func login(t *testing.T, env *TestEnvironment, username, password string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, env.BaseURL()+"/login", "",
		map[string]string{"username": username, "password": password})
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody[map[string]string](t, resp)
	if body["token"] == "" {
		t.Fatal("login returned no token")
	}
	return body["token"]
}
