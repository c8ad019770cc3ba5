package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"reseller-ops/go_backend/internal/app/config"
	"reseller-ops/go_backend/internal/app/http/handlers"
	"reseller-ops/go_backend/internal/app/http/middleware"
	"reseller-ops/go_backend/internal/infra/ratelimit"
)

func NewRouter(cfg config.Config, h *handlers.Handlers, limiter ratelimit.Limiter, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(log))
	r.Use(middleware.CORS(cfg.CORSAllowOrigin))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.SupabaseJWTSecret, cfg.InternalToken))

		limited := middleware.RateLimit(limiter, log)

		r.Get("/agents", h.ListAgents)
		r.Post("/commission/resolve", h.ResolveCommission)

		r.Route("/quotes", func(r chi.Router) {
			r.Get("/next-number", h.NextQuoteNumber)
			r.Get("/next-version", h.NextVersion)
			r.With(limited).Post("/", h.CreateQuote)
			r.Get("/{id}", h.GetQuote)
			r.With(limited).Post("/{id}/revisions", h.ReviseQuote)
			r.With(limited).Put("/{id}/status", h.UpdateQuoteStatus)
			r.Get("/{id}/pdf", h.QuotePDF)
			r.With(limited).Post("/{id}/pdf/archive", h.ArchiveQuotePDF)
		})

		r.Route("/circuits", func(r chi.Router) {
			r.Get("/", h.ListCircuits)
			r.With(limited).Put("/{id}/stage", h.UpdateCircuitStage)
			r.With(limited).Put("/{id}/progress", h.UpdateCircuitProgress)
			r.Get("/{id}/milestones", h.ListCircuitMilestones)
			r.With(limited).Post("/{id}/milestones", h.AddCircuitMilestone)
		})
	})

	return r
}
