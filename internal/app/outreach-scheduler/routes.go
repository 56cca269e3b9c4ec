// Package outreachscheduler собирает HTTP-приложение планировщика рассылок.
package outreachscheduler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/outreach-scheduler/internal/http/handlers/auth/callback"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/handlers/campaign/create"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/handlers/campaign/list"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/handlers/campaign/logs"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/handlers/campaign/remove"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/handlers/campaign/status"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/handlers/health"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/handlers/stats/connections"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/handlers/stats/summary"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/outreach-scheduler/internal/services/campaign"
)

// RouteDeps — зависимости, нужные маршрутам.
type RouteDeps struct {
	Logger    *slog.Logger
	Campaigns *campaign.Service
	Tokens    middlewarectx.TokenParser
	DB        health.Pinger
	Registry  health.Registry
	Gatherer  prometheus.Gatherer
	RateLimit float64
	RateBurst int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d RouteDeps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", health.New(d.Logger, d.DB, d.Registry).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(d.Logger, d.RateLimit, d.RateBurst))

		// Открытые конечные точки
		r.Post("/auth/login", login.New(d.Logger, d.Campaigns).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Tokens, d.Logger))
			r.Post("/auth/callback", callback.New(d.Logger, d.Campaigns).ServeHTTP)

			r.Post("/campaigns", create.New(d.Logger, d.Campaigns).ServeHTTP)
			r.Get("/campaigns", list.New(d.Logger, d.Campaigns).ServeHTTP)
			r.Patch("/campaigns/{id}/status", status.New(d.Logger, d.Campaigns).ServeHTTP)
			r.Delete("/campaigns/{id}", remove.New(d.Logger, d.Campaigns).ServeHTTP)
			r.Get("/campaigns/{id}/logs", logs.New(d.Logger, d.Campaigns).ServeHTTP)

			r.Get("/stats", summary.New(d.Logger, d.Campaigns).ServeHTTP)
			r.Get("/stats/connections", connections.New(d.Logger, d.Campaigns).ServeHTTP)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
}
