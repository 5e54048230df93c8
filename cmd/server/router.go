// File: cmd/server/router.go
package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iakadir/go-iakadir/internal/handlers"
	"github.com/iakadir/go-iakadir/internal/middleware"
	"github.com/iakadir/go-iakadir/internal/ratelimit"
	"github.com/iakadir/go-iakadir/internal/services"
	"github.com/iakadir/go-iakadir/internal/services/ai"
)

type routerDeps struct {
	provider    ai.Provider
	logger      services.Logger
	limiter     *ratelimit.Limiter
	credentials middleware.CredentialConfig
}

func newRouter(deps routerDeps) *mux.Router {
	proxyHandler := handlers.NewProxyHandler(deps.provider, deps.logger)
	healthHandler := handlers.NewHealthHandler(deps.provider)

	r := mux.NewRouter()
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.NewLoggingMiddleware(deps.logger))
	r.Use(middleware.CORS)

	// --- Public Routes ---
	r.HandleFunc("/health", healthHandler.Live).Methods("GET")
	r.HandleFunc("/health/upstream", healthHandler.Upstream).Methods("GET")
	r.HandleFunc("/log", handlers.LogClientEvent).Methods("POST", "OPTIONS")

	// --- Proxy Endpoint ---
	// The limiter keys on the subject the credential check stores.
	var proxy http.Handler = http.HandlerFunc(proxyHandler.Handle)
	proxy = middleware.RateLimitMiddleware(deps.limiter)(proxy)
	proxy = middleware.NewCredentialMiddleware(deps.credentials)(proxy)
	r.Handle("/", proxy).Methods("POST", "OPTIONS")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
