package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TripCrew/internal/middleware"
)

// RouteOptions holds the optional middleware applied to plan submissions.
type RouteOptions struct {
	// Limiter throttles POST /plan and POST /api/v1/plans per client IP,
	// each with its own buckets.
	Limiter *middleware.RateLimiter
	// Idempotency replays responses for repeated Idempotency-Key headers.
	Idempotency func(http.Handler) http.Handler
}

// MountRoutes registers the web pages and the JSON API on r.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	form, api := chi.Chain(), chi.Chain()
	if opts.Limiter != nil {
		form = append(form, opts.Limiter.Limit(middleware.SurfaceForm, h.throttled))
		api = append(api, opts.Limiter.Limit(middleware.SurfaceAPI, nil))
	}
	if opts.Idempotency != nil {
		form = append(form, opts.Idempotency)
		api = append(api, opts.Idempotency)
	}

	r.Get("/health", h.Health)
	r.Handle("/static/*", Static())

	// Web pages
	r.Get("/", h.Index)
	r.With(form...).Post("/plan", h.SubmitForm)
	r.Get("/runs/{id}", h.ShowRun)
	r.Get("/runs/{id}/plan.md", h.DownloadPlan)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})
		r.Get("/options", h.Options)
		r.With(api...).Post("/plans", h.CreatePlan)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
	})
}
