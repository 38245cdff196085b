package transport

import (
	"context"
	"log/slog"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
)

// Reporter records a classified error on a side channel (logs, metrics,
// error telemetry). The executor calls it exactly once per failed request,
// before the terminal handler runs.
type Reporter interface {
	Report(ctx context.Context, err *api.Error)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, err *api.Error)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, err *api.Error) { f(ctx, err) }

type multiReporter []Reporter

// Reporters fans a report out to every non-nil reporter in order. A
// panicking reporter does not stop the others.
func Reporters(reporters ...Reporter) Reporter {
	var m multiReporter
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multiReporter) Report(ctx context.Context, err *api.Error) {
	for _, r := range m {
		func() {
			defer func() {
				if p := recover(); p != nil {
					slog.Error("error reporter panicked", "panic", p)
				}
			}()
			r.Report(ctx, err)
		}()
	}
}

// LogReporter logs every error with its cause. Client errors are logged at
// warn, server and upstream errors at error.
type LogReporter struct {
	Logger *slog.Logger
}

// Report implements Reporter.
func (l LogReporter) Report(ctx context.Context, err *api.Error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.String("request_id", RequestIDFromContext(ctx)),
		slog.String("kind", string(err.Kind)),
		slog.Int("status", err.Status()),
		slog.String("message", err.Message),
	}
	if err.ResourceType != "" {
		attrs = append(attrs, slog.String("resource_type", err.ResourceType), slog.String("resource_id", err.ResourceID))
	}
	if err.Cause != nil {
		attrs = append(attrs, slog.String("cause", err.Cause.Error()))
	}

	level := slog.LevelWarn
	if err.Status() >= 500 {
		level = slog.LevelError
	}
	logger.LogAttrs(ctx, level, "request error", attrs...)
}
