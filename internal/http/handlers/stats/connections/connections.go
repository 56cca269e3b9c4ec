// Package connections реализует HTTP-обработчик статистики подключений,
// которую отдаёт провайдер пользователя.
package connections

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/outreach-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/response"
	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/outreach-scheduler/internal/outreach"
	"github.com/magabrotheeeer/outreach-scheduler/internal/services/campaign"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ProviderStats(ctx context.Context, userUID string) (*outreach.ConnectionStats, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats.connections"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	stats, err := h.service.ProviderStats(r.Context(), userUID)
	switch {
	case errors.Is(err, campaign.ErrNoCredential):
		log.Warn("provider is not connected")
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("provider is not connected"))
		return
	case errors.Is(err, campaign.ErrStatsUnsupported):
		log.Warn("provider does not report stats")
		w.WriteHeader(http.StatusNotImplemented)
		render.JSON(w, r, response.Error("provider does not report stats"))
		return
	case errors.Is(err, outreach.ErrUnauthorized):
		log.Warn("provider rejected access token", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("provider rejected access token"))
		return
	case err != nil:
		log.Error("failed to get provider stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get provider stats"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(stats))
}
