package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/debug"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/observability"
)

// errNoResponse is the cause recorded when a handler returns neither a
// response nor an error.
var errNoResponse = errors.New("handler returned no response")

// Route binds a method and path pattern to a handler.
type Route struct {
	Method  string
	Pattern string

	// Public routes skip authentication.
	Public bool

	// Scopes are required of the authenticated caller. Ignored on public routes.
	Scopes []string

	// Stages run after authentication and before the handler.
	Stages []Middleware

	Handler Handler
}

// String returns the ServeMux pattern for the route.
func (r Route) String() string {
	return r.Method + " " + r.Pattern
}

// Config holds the executor's collaborators. It is resolved once at
// startup; the executor never changes it afterwards.
type Config struct {
	// Verifier is required when any protected route is registered.
	Verifier auth.Verifier

	// Terminals defaults to DefaultTerminals().
	Terminals *Terminals

	// Reporter defaults to a LogReporter on Logger.
	Reporter Reporter

	Logger *slog.Logger
}

// Executor runs each route's stage chain and guarantees a single terminal
// outcome per request.
type Executor struct {
	verifier  auth.Verifier
	terminals *Terminals
	reporter  Reporter
	logger    *slog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(cfg Config) *Executor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Terminals == nil {
		cfg.Terminals = DefaultTerminals()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = LogReporter{Logger: cfg.Logger}
	}
	return &Executor{
		verifier:  cfg.Verifier,
		terminals: cfg.Terminals,
		reporter:  cfg.Reporter,
		logger:    cfg.Logger,
	}
}

// Handler builds the HTTP handler for a route. It fails when the route is
// protected and no verifier is configured.
func (e *Executor) Handler(route Route) (http.Handler, error) {
	if route.Handler == nil {
		return nil, fmt.Errorf("route %s: handler is required", route)
	}

	stages := []Middleware{Recovery()}
	if !route.Public {
		if e.verifier == nil {
			return nil, fmt.Errorf("route %s: protected route requires a verifier", route)
		}
		stages = append(stages, Authenticate(e.verifier))
		if len(route.Scopes) > 0 {
			stages = append(stages, RequireScopes(route.Scopes...))
		}
	}
	stages = append(stages, route.Stages...)

	return e.serve(Chain(stages...)(handling(route.Handler))), nil
}

// Mount registers every route on mux, plus a fallback answering unmatched
// requests with not found through the same termination path.
func (e *Executor) Mount(mux *http.ServeMux, routes ...Route) error {
	for _, route := range routes {
		h, err := e.Handler(route)
		if err != nil {
			return err
		}
		mux.Handle(route.String(), h)
	}
	mux.Handle("/", e.serve(Chain(Recovery())(handling(routeNotFound))))
	return nil
}

func routeNotFound(x *Exchange) (*Response, error) {
	return nil, api.NewRouteNotFoundError(x.Request.Method, x.Request.URL.Path)
}

// serve adapts a composed handler to net/http and terminates the request.
func (e *Executor) serve(h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestIDFor(r)
		w.Header().Set(RequestIDHeader, id)
		x := newExchange(r.WithContext(ContextWithRequestID(r.Context(), id)), id)
		sw := observability.NewStatusWriter(w)

		defer func() {
			if p := recover(); p != nil {
				e.fail(sw, x, api.NewInternalError(fmt.Errorf("panic during termination: %v", p)))
			}
		}()

		resp, err := h(x)
		e.finish(sw, x, resp, err)
	})
}

// finish writes the success response or hands the error to fail. The body
// is encoded before the exchange succeeds, so an unencodable body is an
// internal failure rather than a success without content.
func (e *Executor) finish(w *observability.StatusWriter, x *Exchange, resp *Response, err error) {
	if err == nil && resp == nil {
		err = api.NewInternalError(errNoResponse)
	}
	var data []byte
	if err == nil {
		var encErr error
		if data, encErr = encodeBody(resp.Body); encErr != nil {
			err = api.NewInternalError(fmt.Errorf("encoding response body: %w", encErr))
		}
	}
	if err == nil {
		if terr := x.Transition(api.StateSucceeded); terr != nil {
			err = api.NewInternalError(terr)
		}
	}
	if err != nil {
		e.fail(w, x, err)
		return
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	writeEncoded(w, status, data)
	e.terminate(x)
}

// fail classifies err, reports it once and dispatches it to one terminal
// handler. Nothing is written if a response already went out.
func (e *Executor) fail(w *observability.StatusWriter, x *Exchange, err error) {
	if x.State() == api.StateTerminated {
		e.logger.Error("error after request terminated", "request_id", x.RequestID, "error", err)
		return
	}
	if x.State() != api.StateFailed {
		if terr := x.Transition(api.StateFailed); terr != nil {
			e.logger.Debug("forcing failed state", "request_id", x.RequestID, "from", x.State(), "error", terr)
			x.state = api.StateFailed
			x.history = append(x.history, api.StateFailed)
		}
	}

	classified := api.Classify(err)
	if !x.reported {
		x.reported = true
		e.reporter.Report(x.Context(), classified)
	}

	if w.Written() {
		e.logger.Error("response already written, dropping terminal response",
			"request_id", x.RequestID, "kind", classified.Kind)
	} else {
		debug.Log("transport", "dispatching terminal handler",
			"request_id", x.RequestID, "kind", classified.Kind, "history", x.History())
		e.terminals.Dispatch(w, x.Request, classified)
	}
	e.terminate(x)
}

func (e *Executor) terminate(x *Exchange) {
	if err := x.Transition(api.StateTerminated); err != nil {
		e.logger.Error("terminating request", "request_id", x.RequestID, "error", err)
	}
}
