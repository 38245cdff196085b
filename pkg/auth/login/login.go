// Package login exchanges a username and password for a bearer token.
//
// Local checks bcrypt hashes held in the credential store and signs its own
// token. Delegated forwards the password grant to the identity provider.
package login

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth/local"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth/tokenclient"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage"
)

// Authenticator verifies resource-owner credentials and issues a token.
// A rejected login returns an unauthorized *api.Error.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// ErrCredentialMismatch is the cause recorded for a rejected local login.
var ErrCredentialMismatch = errors.New("username or password mismatch")

// dummyHash is compared against when the username is unknown so both
// rejection paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("bookstore-dummy-password"), bcrypt.DefaultCost)

// HashPassword returns the bcrypt hash stored in a Credential.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// Local authenticates against stored credentials.
type Local struct {
	credentials storage.Repository[*api.Credential]
	signer      *local.Signer
}

// NewLocal creates a local authenticator.
func NewLocal(credentials storage.Repository[*api.Credential], signer *local.Signer) *Local {
	return &Local{credentials: credentials, signer: signer}
}

// Login implements Authenticator.
func (l *Local) Login(ctx context.Context, username, password string) (string, error) {
	matches, err := l.credentials.FindMany(ctx, storage.Filter{"username": username})
	if err != nil {
		return "", api.NewInternalError(fmt.Errorf("looking up credentials: %w", err))
	}

	if len(matches) == 0 {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", api.NewInvalidCredentialsError(ErrCredentialMismatch)
	}
	cred := matches[0]
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", api.NewInvalidCredentialsError(ErrCredentialMismatch)
	}

	token, err := l.signer.Sign(cred.ID, cred.Scopes)
	if err != nil {
		return "", api.NewInternalError(err)
	}
	return token, nil
}

// Delegated authenticates through the identity provider's password grant.
type Delegated struct {
	client *tokenclient.Client
}

// NewDelegated creates a delegated authenticator.
func NewDelegated(client *tokenclient.Client) *Delegated {
	return &Delegated{client: client}
}

// Login implements Authenticator. Provider failures are upstream errors;
// a credential rejection is unauthorized.
func (d *Delegated) Login(ctx context.Context, username, password string) (string, error) {
	token, err := d.client.Password(ctx, username, password)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
