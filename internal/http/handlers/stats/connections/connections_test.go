package connections

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/outreach-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/outreach-scheduler/internal/outreach"
	"github.com/magabrotheeeer/outreach-scheduler/internal/services/campaign"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ProviderStats(ctx context.Context, userUID string) (*outreach.ConnectionStats, error) {
	args := m.Called(ctx, userUID)
	stats, _ := args.Get(0).(*outreach.ConnectionStats)
	return stats, args.Error(1)
}

func TestConnectionsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		stats          *outreach.ConnectionStats
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "статистика провайдера",
			stats:          &outreach.ConnectionStats{TotalConnections: 120, RequestsSentToday: 5, AcceptanceRate: 0.4},
			expectedStatus: http.StatusOK,
			expectedBody:   `"total_connections":120`,
		},
		{
			name:           "провайдер не подключён",
			err:            fmt.Errorf("campaign.ProviderStats: %w", campaign.ErrNoCredential),
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"provider is not connected"`,
		},
		{
			name:           "провайдер без статистики",
			err:            fmt.Errorf("campaign.ProviderStats: %w", campaign.ErrStatsUnsupported),
			expectedStatus: http.StatusNotImplemented,
			expectedBody:   `"error":"provider does not report stats"`,
		},
		{
			name:           "токен отклонён",
			err:            fmt.Errorf("campaign.ProviderStats: %w", outreach.ErrUnauthorized),
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `"error":"provider rejected access token"`,
		},
		{
			name:           "ошибка сервиса",
			err:            errors.New("timeout"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to get provider stats"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ProviderStats", mock.Anything, "uid-1").Return(tt.stats, tt.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/stats/connections", nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
