package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/outreach-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SetStatus(ctx context.Context, userUID string, id int64, status string) error {
	return m.Called(ctx, userUID, id, status).Error(0)
}

func TestStatusHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		id             string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "пауза",
			id:   "5",
			body: `{"status":"paused"}`,
			setupMock: func(m *MockService) {
				m.On("SetStatus", mock.Anything, "uid-1", int64(5), models.CampaignPaused).Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"paused"`,
		},
		{
			name:           "некорректный id",
			id:             "abc",
			body:           `{"status":"paused"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid id"}`,
		},
		{
			name:           "неизвестный статус",
			id:             "5",
			body:           `{"status":"archived"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Status must be one of: active paused completed`,
		},
		{
			name: "кампания не найдена",
			id:   "5",
			body: `{"status":"active"}`,
			setupMock: func(m *MockService) {
				m.On("SetStatus", mock.Anything, "uid-1", int64(5), models.CampaignActive).
					Return(fmt.Errorf("campaign.SetStatus: %w", models.ErrNotFound)).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"campaign not found"`,
		},
		{
			name: "ошибка сервиса",
			id:   "5",
			body: `{"status":"completed"}`,
			setupMock: func(m *MockService) {
				m.On("SetStatus", mock.Anything, "uid-1", int64(5), models.CampaignCompleted).Return(errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to change campaign status"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPatch, "/campaigns/"+tt.id+"/status", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserUID, "uid-1")
			req = req.WithContext(ctx)
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
