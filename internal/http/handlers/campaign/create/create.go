// Package create реализует HTTP-обработчик для создания кампании пользователя.
//
// Handler принимает JSON с параметрами кампании, валидирует его, извлекает UID пользователя
// из контекста и создаёт кампанию через сервис. Кампания сразу регистрируется в планировщике.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/outreach-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/outreach-scheduler/internal/http/response"
	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
	"github.com/magabrotheeeer/outreach-scheduler/internal/services/campaign"
)

// Handler управляет HTTP-запросами на создание кампаний.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики кампаний
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики создания кампании.
type Service interface {
	Create(ctx context.Context, userUID string, req models.CampaignRequest) (*models.Campaign, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.campaign.create"
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

	var req models.CampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	c, err := h.service.Create(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to create campaign", sl.Err(err))
		if errors.Is(err, campaign.ErrInvalidSchedule) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid schedule"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create campaign"))
		return
	}

	log.Info("campaign created", sl.Campaign(c.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(c))
}
