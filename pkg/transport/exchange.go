package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth"
)

// Exchange is the state of one request travelling through the pipeline.
// It is owned by a single request and never shared.
type Exchange struct {
	Request   *http.Request
	RequestID string
	Start     time.Time

	// Auth is set by the authentication stage; nil on public routes.
	Auth *auth.AuthContext

	// ServiceToken is set by the ServiceToken stage.
	ServiceToken string

	state    api.ExchangeState
	history  []api.ExchangeState
	reported bool
}

func newExchange(r *http.Request, requestID string) *Exchange {
	return &Exchange{
		Request:   r,
		RequestID: requestID,
		Start:     time.Now(),
		state:     api.StatePending,
		history:   []api.ExchangeState{api.StatePending},
	}
}

// NewExchange creates an exchange in state pending. It is meant for calling
// handlers outside an Executor, such as in tests.
func NewExchange(r *http.Request) *Exchange {
	id := requestIDFor(r)
	return newExchange(r.WithContext(ContextWithRequestID(r.Context(), id)), id)
}

// State returns the current lifecycle state.
func (x *Exchange) State() api.ExchangeState {
	return x.state
}

// History returns every state the exchange has been in, oldest first.
func (x *Exchange) History() []api.ExchangeState {
	return append([]api.ExchangeState(nil), x.history...)
}

// Transition moves the exchange to a new state, rejecting moves the
// lifecycle does not allow.
func (x *Exchange) Transition(to api.ExchangeState) error {
	if err := api.ValidateExchangeTransition(x.state, to); err != nil {
		return err
	}
	x.state = to
	x.history = append(x.history, to)
	return nil
}

// Context returns the request context.
func (x *Exchange) Context() context.Context {
	return x.Request.Context()
}

// SetContext replaces the request context.
func (x *Exchange) SetContext(ctx context.Context) {
	x.Request = x.Request.WithContext(ctx)
}

// PathValue returns a wildcard value from the matched route pattern.
func (x *Exchange) PathValue(name string) string {
	return x.Request.PathValue(name)
}
