package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/observability"
)

// Logging returns HTTP middleware that emits one structured log entry per
// request with method, path, status, duration and request ID. Responses
// with a 5xx status are logged at error level.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := observability.NewStatusWriter(w)

			next.ServeHTTP(sw, r)

			attrs := []slog.Attr{
				slog.String("request_id", w.Header().Get(RequestIDHeader)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.Status()),
				slog.Duration("duration", time.Since(start)),
			}
			if sw.Status() >= 500 {
				logger.LogAttrs(r.Context(), slog.LevelError, "request failed", attrs...)
				return
			}
			logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
		})
	}
}
