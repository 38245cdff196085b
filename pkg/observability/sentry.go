package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
)

// SentryConfig holds the error telemetry settings.
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
	SampleRate  float64

	// Kinds selects which error kinds are sent. Default: internal and upstream.
	Kinds []api.Kind

	// BeforeSend lets callers inspect or drop events (useful for testing).
	BeforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event
}

// SentryReporter forwards classified errors to Sentry.
type SentryReporter struct {
	hub   *sentry.Hub
	kinds map[api.Kind]bool
}

// NewSentryReporter creates a reporter with its own client and hub, so it
// does not depend on the process-global Sentry state.
func NewSentryReporter(cfg SentryConfig) (*SentryReporter, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		SampleRate:  cfg.SampleRate,
		BeforeSend:  cfg.BeforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("creating sentry client: %w", err)
	}

	kinds := cfg.Kinds
	if len(kinds) == 0 {
		kinds = []api.Kind{api.KindInternal, api.KindUpstream}
	}
	r := &SentryReporter{
		hub:   sentry.NewHub(client, sentry.NewScope()),
		kinds: make(map[api.Kind]bool, len(kinds)),
	}
	for _, k := range kinds {
		r.kinds[k] = true
	}
	return r, nil
}

// Report captures the error when its kind is selected.
func (r *SentryReporter) Report(_ context.Context, err *api.Error) {
	if err == nil || !r.kinds[err.Kind] {
		return
	}
	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("kind", string(err.Kind))
		if err.ResourceType != "" {
			scope.SetTag("resource_type", err.ResourceType)
		}
		var captured error = err
		if err.Cause != nil {
			captured = err.Cause
		}
		hub.CaptureException(captured)
	})
}

// Flush waits for buffered events to be delivered.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
