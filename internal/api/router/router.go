// Package router assembles the HTTP surface: chat endpoints, health check,
// and metrics.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apimiddleware "github.com/driveline-ai/lucid-booking-bot/internal/api/middleware"
	"github.com/driveline-ai/lucid-booking-bot/internal/chat"
	"github.com/driveline-ai/lucid-booking-bot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	ChatHandler    *chat.Handler
	MetricsHandler http.Handler
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(apimiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"lucid-booking-bot"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ChatHandler != nil {
		cfg.ChatHandler.Routes(r)
	}

	return r
}
