package http

import (
	"context"
	"net/http"
	"time"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/transport"
)

const readyTimeout = 2 * time.Second

type statusResponse struct {
	Status string `json:"status"`
}

// handleHealthz reports liveness.
func (a *Adapter) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	transport.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// handleReadyz reports whether storage is reachable.
func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.config.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := a.config.Health.HealthCheck(ctx); err != nil {
			a.config.Logger.Warn("readiness check failed", "error", err)
			transport.WriteJSON(w, http.StatusServiceUnavailable, api.ErrorResponse{Message: "Storage is not available!"})
			return
		}
	}
	transport.WriteJSON(w, http.StatusOK, statusResponse{Status: "ready"})
}
