// File: internal/handlers/health_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/iakadir/go-iakadir/internal/services/ai"
)

type StatusReporter interface {
	GetStatus(ctx context.Context) ai.ProviderStatus
}

type HealthHandler struct {
	upstream StatusReporter
}

func NewHealthHandler(upstream StatusReporter) *HealthHandler {
	return &HealthHandler{upstream: upstream}
}

// Live answers 200 while the process is serving.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Upstream reports whether the upstream API accepts our credential.
func (h *HealthHandler) Upstream(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := h.upstream.GetStatus(ctx)
	code := http.StatusOK
	if !status.IsHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
