package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CORSOrigins       []string
	RateLimitDisabled bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	LoginRateLimit    int
}

func NewRouter(apiHandler *APIHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(corsMiddleware(cfg.CORSOrigins))

	r.Handle("/metrics", promhttp.Handler())

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimitDisabled, cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Use(apiHandler.SessionMiddleware)

		r.Get("/health", apiHandler.HealthHandler)
		r.Post("/logout", apiHandler.LogoutHandler)
		r.Post("/recommendations", apiHandler.RecommendationsHandler)

		// Credential endpoints get a tighter budget
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(cfg.RateLimitDisabled, cfg.LoginRateLimit, cfg.RateLimitWindow))
			r.Post("/login", apiHandler.LoginHandler)
			r.Post("/users", apiHandler.SignupHandler)
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.RequireSession)

			r.Get("/me", apiHandler.MeHandler)
			r.Put("/me/preferences", apiHandler.PreferencesHandler)
			r.Post("/recommendations/like", apiHandler.LikeHandler)
			r.Get("/recommendations/likes", apiHandler.LikesHandler)
		})
	})

	return r
}
