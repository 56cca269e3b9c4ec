// Package list реализует HTTP-обработчик получения кампаний текущего пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/outreach-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/response"
	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

// Handler возвращает список кампаний.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение кампаний пользователя.
type Service interface {
	List(ctx context.Context, userUID string) ([]*models.Campaign, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.campaign.list"
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

	campaigns, err := h.service.List(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list campaigns", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list campaigns"))
		return
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"campaigns": campaigns,
	}))
}
