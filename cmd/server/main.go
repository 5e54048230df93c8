// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iakadir/go-iakadir/internal/config"
	"github.com/iakadir/go-iakadir/internal/middleware"
	"github.com/iakadir/go-iakadir/internal/ratelimit"
	"github.com/iakadir/go-iakadir/internal/services"
	"github.com/iakadir/go-iakadir/internal/services/ai"
)

func main() {
	cfg := config.Load()
	logger := services.NewLogger("iakadir-proxy")

	// --- Upstream ---
	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.OpenAIAPIKey
	aiConfig.BaseURL = cfg.OpenAIBaseURL
	aiConfig.Timeout = cfg.UpstreamTimeout
	aiConfig.DefaultChatModel = cfg.DefaultChatModel
	aiConfig.DefaultTranscribeModel = cfg.DefaultTranscribeModel
	provider := ai.NewOpenAIProvider(aiConfig, logger)

	limiter := ratelimit.NewLimiter(ratelimit.DefaultProxyConfig(cfg.RateLimitPerMinute))
	defer limiter.Close()

	var jwtSecret []byte
	if cfg.SessionJWTSecret != "" {
		jwtSecret = []byte(cfg.SessionJWTSecret)
	}

	r := newRouter(routerDeps{
		provider: provider,
		logger:   logger,
		limiter:  limiter,
		credentials: middleware.CredentialConfig{
			AnonKey:   cfg.AnonKey,
			JWTSecret: jwtSecret,
		},
	})

	// --- Server Configuration ---
	port := ":8080"
	if cfg.ServerPort != "" {
		port = ":" + cfg.ServerPort
	}
	srv := &http.Server{
		Addr:              port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Startup Logging ---
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("==================================================")
	log.Printf("Iakadir - assistant request proxy")
	log.Printf("==================================================")
	log.Printf("Server starting on port %s", port)
	log.Printf("Proxy endpoint: POST http://localhost%s/", port)
	log.Printf("Upstream: %s (key configured: %t)", aiConfig.BaseURL, provider.Configured())
	log.Printf("Session tokens verified: %t", len(jwtSecret) > 0)
	log.Printf("==================================================")

	// --- Start Server in Goroutine ---
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}
