// Package http exposes the bookstore resources over HTTP. Every route is
// served through a transport.Executor, so authentication, classification
// and the final error response are handled in one place.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth/login"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/transport"
)

// HealthChecker reports whether a dependency is ready to serve traffic.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds the adapter's collaborators.
type Config struct {
	Repositories storage.Repositories

	// Login issues tokens for POST /login.
	Login login.Authenticator

	// WriteScopes are required on every mutating route.
	WriteScopes []string

	// ServiceTokens, when set, obtains a service token before every write.
	ServiceTokens transport.TokenSource

	// Health backs GET /readyz. Nil means always ready.
	Health HealthChecker

	// MaxBodySize bounds request bodies. Default: 1 MiB.
	MaxBodySize int64

	Logger *slog.Logger
}

// Adapter serves the bookstore API.
type Adapter struct {
	config  Config
	books   *collection[*api.Book, *api.BookPatch]
	records *collection[*api.Record, *api.RecordPatch]
}

// NewAdapter creates an adapter.
func NewAdapter(cfg Config) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	a := &Adapter{config: cfg}
	a.books = newBookCollection(cfg.Repositories.Books, cfg.MaxBodySize)
	a.records = newRecordCollection(cfg.Repositories.Records, cfg.MaxBodySize)
	return a
}

// Routes returns every API route.
func (a *Adapter) Routes() []transport.Route {
	routes := []transport.Route{
		{Method: http.MethodPost, Pattern: "/login", Public: true, Handler: a.handleLogin},
		{Method: http.MethodGet, Pattern: "/users", Handler: a.handleListUsers},
		{Method: http.MethodGet, Pattern: "/users/{id}/orders", Handler: a.handleUserOrders},
	}
	routes = append(routes, a.collectionRoutes("/books", a.books.handlers())...)
	routes = append(routes, a.collectionRoutes("/records", a.records.handlers())...)
	return routes
}

// collectionRoutes binds the handlers of one collection: reads are public,
// writes require the write scopes and, when configured, a service token.
func (a *Adapter) collectionRoutes(base string, h collectionHandlers) []transport.Route {
	var stages []transport.Middleware
	if a.config.ServiceTokens != nil {
		stages = append(stages, transport.ServiceToken(a.config.ServiceTokens))
	}
	write := func(method, pattern string, handler transport.Handler) transport.Route {
		return transport.Route{
			Method:  method,
			Pattern: pattern,
			Scopes:  a.config.WriteScopes,
			Stages:  stages,
			Handler: handler,
		}
	}
	return []transport.Route{
		{Method: http.MethodGet, Pattern: base, Public: true, Handler: h.list},
		{Method: http.MethodGet, Pattern: base + "/{id}", Public: true, Handler: h.get},
		write(http.MethodPost, base, h.create),
		write(http.MethodPut, base+"/{id}", h.update),
		write(http.MethodDelete, base+"/{id}", h.delete),
	}
}

// Mount registers the health endpoints and every API route on mux.
// Unmatched requests are answered by the executor with not found.
func (a *Adapter) Mount(mux *http.ServeMux, exec *transport.Executor) error {
	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	return exec.Mount(mux, a.Routes()...)
}

// Handler builds a mux with every route and wraps it in the request logger.
func (a *Adapter) Handler(exec *transport.Executor) (http.Handler, error) {
	mux := http.NewServeMux()
	if err := a.Mount(mux, exec); err != nil {
		return nil, err
	}
	return transport.Logging(a.config.Logger)(mux), nil
}

// decodeJSON reads a bounded JSON body into v. Any failure is a
// validation error.
func decodeJSON(x *transport.Exchange, maxBytes int64, v any) error {
	body := http.MaxBytesReader(nil, x.Request.Body, maxBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			return api.NewValidationError(fmt.Sprintf("Request body too large (max %d bytes)!", maxBytes), err)
		case errors.Is(err, io.EOF):
			return api.NewValidationError("Request body is required!", err)
		default:
			return api.NewValidationError("Request body is not valid JSON!", err)
		}
	}
	return nil
}

// storeError translates a repository failure for the client. Absence
// becomes not found for the named resource; everything else is internal.
func storeError(resource, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return api.NewNotFoundError(resource, id)
	}
	return api.NewInternalError(fmt.Errorf("%s %s: %w", resource, id, err))
}

func ok(body any) (*transport.Response, error) {
	return &transport.Response{Status: http.StatusOK, Body: body}, nil
}
