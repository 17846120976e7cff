// Package router assembles the HTTP surface of the agent.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zealsham/appointment-ai-agent/internal/conversation"
	httpmiddleware "github.com/zealsham/appointment-ai-agent/internal/http/middleware"
	"github.com/zealsham/appointment-ai-agent/internal/webchat"
	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	WebchatHandler      *webchat.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/message", cfg.ConversationHandler.HandleMessage)
		api.Post("/reset", cfg.ConversationHandler.HandleReset)
		api.Get("/history", cfg.ConversationHandler.HandleHistory)
		api.Get("/debug", cfg.ConversationHandler.HandleDebug)
	})

	if cfg.WebchatHandler != nil {
		r.Get("/ws", cfg.WebchatHandler.HandleWebSocket)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
