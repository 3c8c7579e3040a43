package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atendezap/dialogue-engine/internal/http/handlers"
	httpmiddleware "github.com/atendezap/dialogue-engine/internal/http/middleware"
	"github.com/atendezap/dialogue-engine/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	WhatsAppWebhook *handlers.WhatsAppWebhookHandler
	MetricsHandler  http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.WhatsAppWebhook.HealthCheck)
	r.Route("/webhooks/whatsapp", func(wh chi.Router) {
		wh.Get("/", cfg.WhatsAppWebhook.Verify)
		wh.Post("/", cfg.WhatsAppWebhook.Handle)
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
