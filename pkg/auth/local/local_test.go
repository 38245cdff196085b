package local

import (
	"context"
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
)

var testSecret = []byte("test-secret-key")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newPair(t *testing.T, cfg Config) (*Signer, *Verifier) {
	t.Helper()
	s, err := NewSigner(cfg)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	v, err := NewVerifier(cfg)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return s, v
}

func signRaw(t *testing.T, method jwtlib.SigningMethod, key interface{}, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	return s
}

func TestSignAndVerify(t *testing.T) {
	signer, verifier := newPair(t, Config{Secret: testSecret, Issuer: "bookstore"})

	token, err := signer.Sign("user-1", []string{"books:write"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	ac, err := verifier.Verify(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ac.SubjectID != "user-1" {
		t.Errorf("SubjectID = %q", ac.SubjectID)
	}
	if !ac.HasScope("books:write") {
		t.Errorf("Scopes = %v", ac.Scopes)
	}
	if ac.ExpiresAt.Sub(ac.IssuedAt) != time.Hour {
		t.Errorf("lifetime = %v, want 1h", ac.ExpiresAt.Sub(ac.IssuedAt))
	}
}

func TestVerifyRejections(t *testing.T) {
	now := time.Now()
	_, verifier := newPair(t, Config{Secret: testSecret, Now: fixedClock(now)})

	valid := jwtlib.MapClaims{"sub": "u", "iat": now.Unix(), "exp": now.Add(time.Hour).Unix()}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Token abc"},
		{"garbage", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signRaw(t, jwtlib.SigningMethodHS256, []byte("other"), valid)},
		{"expired", "Bearer " + signRaw(t, jwtlib.SigningMethodHS256, testSecret, jwtlib.MapClaims{
			"sub": "u", "iat": now.Add(-2 * time.Hour).Unix(), "exp": now.Add(-time.Hour).Unix(),
		})},
		{"no expiry", "Bearer " + signRaw(t, jwtlib.SigningMethodHS256, testSecret, jwtlib.MapClaims{"sub": "u"})},
		{"wrong algorithm", "Bearer " + signRaw(t, jwtlib.SigningMethodHS512, testSecret, valid)},
		{"no subject", "Bearer " + signRaw(t, jwtlib.SigningMethodHS256, testSecret, jwtlib.MapClaims{
			"iat": now.Unix(), "exp": now.Add(time.Hour).Unix(),
		})},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac, err := verifier.Verify(context.Background(), tt.header)
			if ac != nil {
				t.Fatal("expected no auth context")
			}
			var apiErr *api.Error
			if !errors.As(err, &apiErr) || apiErr.Kind != api.KindUnauthorized {
				t.Fatalf("err = %v, want unauthorized", err)
			}
			messages = append(messages, apiErr.Message)
		})
	}

	for _, m := range messages {
		if m != messages[0] {
			t.Errorf("client messages differ: %q vs %q", m, messages[0])
		}
	}
}

func TestVerifyLegacyUserIDClaim(t *testing.T) {
	now := time.Now()
	_, verifier := newPair(t, Config{Secret: testSecret, Now: fixedClock(now)})

	token := signRaw(t, jwtlib.SigningMethodHS256, testSecret, jwtlib.MapClaims{
		"userId": "legacy-7", "iat": now.Unix(), "exp": now.Add(time.Minute).Unix(),
	})
	ac, err := verifier.Verify(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ac.SubjectID != "legacy-7" {
		t.Errorf("SubjectID = %q", ac.SubjectID)
	}
}

func TestVerifyIssuerMismatch(t *testing.T) {
	signer, _ := newPair(t, Config{Secret: testSecret, Issuer: "someone-else"})
	_, verifier := newPair(t, Config{Secret: testSecret, Issuer: "bookstore"})

	token, err := signer.Sign("u", nil)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := verifier.Verify(context.Background(), "Bearer "+token); err == nil {
		t.Error("expected issuer mismatch to be rejected")
	}
}

func TestEmptySecret(t *testing.T) {
	if _, err := NewVerifier(Config{}); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("NewVerifier err = %v", err)
	}
	if _, err := NewSigner(Config{}); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("NewSigner err = %v", err)
	}
}
