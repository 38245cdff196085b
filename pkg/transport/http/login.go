package http

import (
	"errors"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/transport"
)

// handleLogin handles POST /login.
func (a *Adapter) handleLogin(x *transport.Exchange) (*transport.Response, error) {
	if a.config.Login == nil {
		return nil, api.NewInternalError(errors.New("no authenticator configured"))
	}

	var req api.LoginRequest
	if err := decodeJSON(x, a.config.MaxBodySize, &req); err != nil {
		return nil, err
	}
	// Missing fields are a failed login, not a malformed request.
	if err := req.Validate(); err != nil {
		return nil, api.NewInvalidCredentialsError(err)
	}

	token, err := a.config.Login.Login(x.Context(), req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return ok(api.LoginResponse{Message: "Successfully logged in!", Token: token})
}
