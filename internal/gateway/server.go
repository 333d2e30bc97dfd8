package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public, no auth required.
	r.Get("/", handleRoot)
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", g.metricsHandler())

	// Webhooks carry their own per-source authentication.
	r.Post("/webhooks/{source}", g.dispatcher.ServeHTTP)

	// Admin endpoints. Not mounted if no auth is configured.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth, g.authLimit, g.logger))
			r.Get("/status", g.handleStatus())
			r.Route("/api", func(r chi.Router) {
				r.Get("/transcripts", g.handleListTranscripts())
				r.Get("/modules", g.handleGetAllModules())
			})
		})
	}

	return r
}

// handleRoot answers the liveness probe hosting platforms send to "/".
func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("hello world"))
}
