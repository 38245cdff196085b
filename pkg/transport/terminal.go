package transport

import (
	"log/slog"
	"net/http"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/observability"
)

// TerminalHandler renders a classified error as the final response.
type TerminalHandler func(w http.ResponseWriter, r *http.Request, err *api.Error)

// Terminals maps error kinds to terminal handlers. Internal errors, kinds
// without a registered handler and handlers that write nothing all end in
// CatchAll. The catch-all itself cannot be replaced, so an internal failure
// always answers 500 without detail.
type Terminals struct {
	handlers map[api.Kind]TerminalHandler
}

// NewTerminals creates a registry holding only the built-in catch-all.
func NewTerminals() *Terminals {
	return &Terminals{handlers: make(map[api.Kind]TerminalHandler)}
}

// DefaultTerminals creates a registry rendering every non-internal kind
// with its status and message.
func DefaultTerminals() *Terminals {
	t := NewTerminals()
	t.Handle(api.KindNotFound, NotFoundHandler)
	for _, k := range []api.Kind{api.KindUnauthorized, api.KindForbidden, api.KindValidation, api.KindUpstream} {
		t.Handle(k, MessageHandler)
	}
	return t
}

// Handle registers h for kind. Registering for internal is ignored: internal
// errors always reach the catch-all.
func (t *Terminals) Handle(kind api.Kind, h TerminalHandler) *Terminals {
	if kind == api.KindInternal || h == nil {
		return t
	}
	if t.handlers == nil {
		t.handlers = make(map[api.Kind]TerminalHandler)
	}
	t.handlers[kind] = h
	return t
}

// Dispatch invokes the terminal handler for err. When the handler panics
// or returns without writing, CatchAll answers instead.
func (t *Terminals) Dispatch(w http.ResponseWriter, r *http.Request, err *api.Error) {
	sw := observability.NewStatusWriter(w)
	defer func() {
		if p := recover(); p != nil {
			slog.Error("terminal handler panicked", "kind", err.Kind, "panic", p)
		}
		if !sw.Written() {
			CatchAll(sw, r, err)
		}
	}()
	if h := t.lookup(err.Kind); h != nil {
		h(sw, r, err)
	}
}

func (t *Terminals) lookup(kind api.Kind) TerminalHandler {
	if t == nil || kind == api.KindInternal {
		return nil
	}
	return t.handlers[kind]
}

// NotFoundHandler answers 404 with the error's message.
func NotFoundHandler(w http.ResponseWriter, _ *http.Request, err *api.Error) {
	WriteErrorResponse(w, err.Message, http.StatusNotFound)
}

// MessageHandler answers with the kind's status and the error's message.
func MessageHandler(w http.ResponseWriter, _ *http.Request, err *api.Error) {
	WriteErrorResponse(w, err.Message, err.Status())
}

// CatchAll answers 500 with a fixed message, whatever the error.
func CatchAll(w http.ResponseWriter, _ *http.Request, _ *api.Error) {
	WriteErrorResponse(w, api.MessageInternal, http.StatusInternalServerError)
}
