package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itchan-dev/threads/backend/internal/middleware"
	"github.com/itchan-dev/threads/backend/internal/setup"
	mw "github.com/itchan-dev/threads/shared/middleware"
	"github.com/itchan-dev/threads/shared/middleware/metrics"
)

// New creates and configures a new chi router with all the routes.
// Mutating routes share one per ip limiter when rate_limit.rps is set.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()
	cfg := deps.Config.Public

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(chimw.Compress(5))

	// setup CORS for the web client
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Use(mw.SecurityHeaders(cfg.SecureCookies))

	h := deps.Handler

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	limited := func(r chi.Router) chi.Router {
		if deps.Limiter == nil {
			return r
		}
		return r.With(middleware.RateLimit(deps.Limiter, middleware.ClientIP(deps.TrustedProxies)))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			limited(r).Post("/", h.CreateUser)
			r.Get("/{user}", h.GetUser)
			r.Get("/{user}/threads", h.GetUserThreads)
		})

		r.Route("/communities", func(r chi.Router) {
			limited(r).Post("/", h.CreateCommunity)
			r.Get("/{community}", h.GetCommunity)
		})

		r.Route("/threads", func(r chi.Router) {
			r.Get("/", h.GetFeed)
			limited(r).Post("/", h.CreateThread)
			r.Get("/{thread}", h.GetThread)
			limited(r).Delete("/{thread}", h.DeleteThread)
			limited(r).Post("/{thread}/comments", h.AddComment)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return r
}
