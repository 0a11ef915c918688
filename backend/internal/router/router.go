package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wam-dev/threads/backend/internal/setup"
	mw "github.com/wam-dev/threads/shared/middleware"
	"github.com/wam-dev/threads/shared/middleware/metrics"
)

// New creates and configures a new chi router with all the routes.
// IMPORTANT! a limiter set with Use limits requests for all endpoints of that group combined
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(mw.SecurityHeaders(deps.Config.Public.SecureHeaders))

	h := deps.Handler

	r.Group(func(public chi.Router) {
		public.Use(mw.RateLimit(deps.PublicLimiter, mw.GetIP)) // 10 RPS per IP
		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Handle("/metrics", promhttp.Handler())
	})

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(deps.Auth.NeedAuth())
		v1.Use(mw.RateLimit(deps.ReadLimiter, mw.GetIdentityKey)) // 100 RPS per caller

		v1.Get("/threads", h.ListThreads)
		v1.Get("/threads/{id}", h.GetThread)
		v1.Get("/users/{identityId}", h.GetUser)
		v1.Get("/users/{identityId}/threads", h.GetUserThreads)
		v1.Put("/users/me", h.UpdateMe)

		v1.Group(func(posting chi.Router) {
			posting.Use(mw.RateLimit(deps.PostLimiter, mw.GetIdentityKey))
			posting.Post("/threads", h.CreateThread)
			posting.Post("/threads/{id}/replies", h.CreateReply)
		})
	})

	return r
}
