package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth"
)

// Authenticate returns the authentication stage. It verifies the
// Authorization header and attaches the resulting AuthContext to the
// exchange and request context. Any verifier failure is unauthorized.
func Authenticate(v auth.Verifier) Middleware {
	return func(next Handler) Handler {
		return func(x *Exchange) (*Response, error) {
			if err := x.Transition(api.StateAuthenticating); err != nil {
				return nil, api.NewInternalError(err)
			}

			ac, err := v.Verify(x.Context(), x.Request.Header.Get("Authorization"))
			if err != nil {
				var apiErr *api.Error
				if !errors.As(err, &apiErr) || apiErr.Kind != api.KindUnauthorized {
					err = api.NewUnauthorizedError(err)
				}
				return nil, err
			}
			if ac == nil {
				return nil, api.NewUnauthorizedError(errors.New("verifier returned no identity"))
			}

			x.Auth = ac
			x.SetContext(auth.SetAuthContext(x.Context(), ac))
			return next(x)
		}
	}
}

// RequireScopes returns a stage rejecting authenticated callers that lack
// any of the given scopes. It must run after Authenticate.
func RequireScopes(scopes ...string) Middleware {
	return func(next Handler) Handler {
		return func(x *Exchange) (*Response, error) {
			if x.Auth == nil {
				return nil, api.NewUnauthorizedError(errors.New("scope check before authentication"))
			}
			for _, s := range scopes {
				if !x.Auth.HasScope(s) {
					return nil, api.NewForbiddenError("")
				}
			}
			return next(x)
		}
	}
}

// TokenSource obtains a token for this service itself.
type TokenSource interface {
	ServiceToken(ctx context.Context) (string, error)
}

// ServiceToken returns a stage that obtains a client-credentials token
// before the handler runs and stores it on the exchange. A failure to
// obtain one is upstream.
func ServiceToken(src TokenSource) Middleware {
	return func(next Handler) Handler {
		return func(x *Exchange) (*Response, error) {
			tok, err := src.ServiceToken(x.Context())
			if err != nil {
				var apiErr *api.Error
				if !errors.As(err, &apiErr) || apiErr.Kind != api.KindUpstream {
					err = api.NewUpstreamError("", fmt.Errorf("obtaining service token: %w", err))
				}
				return nil, err
			}
			x.ServiceToken = tok
			return next(x)
		}
	}
}

// handling moves the exchange into the handling state before calling h.
func handling(h Handler) Handler {
	return func(x *Exchange) (*Response, error) {
		if err := x.Transition(api.StateHandling); err != nil {
			return nil, api.NewInternalError(err)
		}
		return h(x)
	}
}
