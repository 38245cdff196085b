package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
)

// testKeyPair holds the RSA key pair used throughout the tests.
var testKeyPair *rsa.PrivateKey

func init() {
	var err error
	testKeyPair, err = rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(fmt.Sprintf("generating test RSA key: %v", err))
	}
}

const (
	testKID      = "test-key-1"
	testIssuer   = "https://auth.example.com/"
	testAudience = "bookstore-api"
)

// jwksHandler serves the test public key as a JWKS and counts fetches.
func jwksHandler(fetchCount *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fetchCount != nil {
			fetchCount.Add(1)
		}

		pubKey := testKeyPair.PublicKey
		jwks := map[string]interface{}{
			"keys": []map[string]string{
				{
					"kty": "RSA",
					"kid": testKID,
					"use": "sig",
					"n":   base64.RawURLEncoding.EncodeToString(pubKey.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pubKey.E)).Bytes()),
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jwks)
	}
}

// createSignedToken creates a JWT signed with the test private key.
func createSignedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
	token.Header["kid"] = testKID

	tokenStr, err := token.SignedString(testKeyPair)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return tokenStr
}

func validClaims() jwtlib.MapClaims {
	return jwtlib.MapClaims{
		"sub":   "auth0|user-123",
		"iss":   testIssuer,
		"aud":   testAudience,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
		"scope": "books:write",
	}
}

func newTestVerifier(t *testing.T, fetchCount *atomic.Int32) *Verifier {
	t.Helper()
	server := httptest.NewServer(jwksHandler(fetchCount))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	v, err := New(ctx, Config{
		Issuer:   testIssuer,
		Audience: testAudience,
		JWKSURL:  server.URL + "/.well-known/jwks.json",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(v.Close)
	return v
}

func TestVerify_ValidToken(t *testing.T) {
	v := newTestVerifier(t, nil)

	ac, err := v.Verify(context.Background(), "Bearer "+createSignedToken(t, validClaims()))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ac.SubjectID != "auth0|user-123" {
		t.Errorf("SubjectID = %q", ac.SubjectID)
	}
	if !ac.HasScope("books:write") {
		t.Errorf("Scopes = %v", ac.Scopes)
	}
}

func TestVerify_Rejections(t *testing.T) {
	v := newTestVerifier(t, nil)

	with := func(key string, val interface{}) string {
		c := validClaims()
		if val == nil {
			delete(c, key)
		} else {
			c[key] = val
		}
		return "Bearer " + createSignedToken(t, c)
	}

	hsToken, _ := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"garbage", "Bearer not-a-jwt"},
		{"expired", with("exp", time.Now().Add(-time.Hour).Unix())},
		{"wrong audience", with("aud", "other-api")},
		{"wrong issuer", with("iss", "https://evil.example.com/")},
		{"missing subject", with("sub", nil)},
		{"missing expiry", with("exp", nil)},
		{"hmac token", "Bearer " + hsToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac, err := v.Verify(context.Background(), tt.header)
			if ac != nil {
				t.Fatal("expected nil auth context")
			}
			var apiErr *api.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *api.Error", err)
			}
			if apiErr.Kind != api.KindUnauthorized || apiErr.Message != api.MessageUnauthorized {
				t.Errorf("got %s %q", apiErr.Kind, apiErr.Message)
			}
		})
	}
}

func TestVerify_KeysFetchedOnce(t *testing.T) {
	var fetches atomic.Int32
	v := newTestVerifier(t, &fetches)

	for i := 0; i < 5; i++ {
		if _, err := v.Verify(context.Background(), "Bearer "+createSignedToken(t, validClaims())); err != nil {
			t.Fatalf("Verify #%d: %v", i, err)
		}
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("JWKS fetched %d times, want 1", got)
	}
}

func TestNew_RequiresAudienceAndIssuer(t *testing.T) {
	if _, err := New(context.Background(), Config{Issuer: testIssuer}); err == nil {
		t.Error("expected error without audience")
	}
	if _, err := New(context.Background(), Config{Audience: testAudience}); err == nil {
		t.Error("expected error without issuer")
	}
}

func TestConfigDefaultsFromDomain(t *testing.T) {
	cfg := Config{Domain: "tenant.eu.auth0.com", Audience: "a"}
	cfg.applyDefaults()

	if cfg.Issuer != "https://tenant.eu.auth0.com/" {
		t.Errorf("Issuer = %q", cfg.Issuer)
	}
	if cfg.JWKSURL != "https://tenant.eu.auth0.com/.well-known/jwks.json" {
		t.Errorf("JWKSURL = %q", cfg.JWKSURL)
	}
}

func TestIssuerFromDomain(t *testing.T) {
	tests := map[string]string{
		"tenant.auth0.com":          "https://tenant.auth0.com/",
		"https://tenant.auth0.com/": "https://tenant.auth0.com/",
		"http://localhost:8081":     "http://localhost:8081/",
	}
	for in, want := range tests {
		if got := IssuerFromDomain(in); got != want {
			t.Errorf("IssuerFromDomain(%q) = %q, want %q", in, got, want)
		}
	}
}
