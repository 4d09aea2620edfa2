/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  unique ID per request for tracing
  2. Recoverer:  panic recovery (500 instead of crash)
  3. RequestLogger: structured request/response logging via zap
  4. CORS:       storefront origin access

  The admin subtree additionally requires the configured admin token.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig carries the router's non-handler settings.
type RouterConfig struct {
	AllowedOrigins []string
	AdminToken     string
}

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, log *zap.Logger, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/loyalty", func(r chi.Router) {
			r.Get("/account", h.GetAccount)
			r.Get("/history", h.GetHistory)
			r.Get("/tiers", h.GetTiers)
			r.Get("/rewards", h.GetRewards)
			r.Post("/purchases", h.RecordPurchase)
			r.Post("/redeem", h.Redeem)
		})

		r.Route("/admin/loyalty", func(r chi.Router) {
			r.Use(RequireAdmin(cfg.AdminToken))
			r.Post("/accounts", h.InitializeAccount)
		})
	})

	return r
}

// RequireAdmin rejects requests whose X-Admin-Token header does not
// match the configured token. An empty configured token disables the
// subtree entirely.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.Header.Get("X-Admin-Token") != token {
				writeError(w, http.StatusUnauthorized, "Admin token required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
