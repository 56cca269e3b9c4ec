package callback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/outreach-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SetCredential(ctx context.Context, userUID, accessToken string) error {
	return m.Called(ctx, userUID, accessToken).Error(0)
}

func TestCallbackHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		userUID        string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "успешное сохранение",
			userUID: "uid-1",
			body:    `{"access_token":"tok"}`,
			setupMock: func(m *MockService) {
				m.On("SetCredential", mock.Anything, "uid-1", "tok").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"connected":true`,
		},
		{
			name:           "без пользователя",
			body:           `{"access_token":"tok"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:           "пустой токен",
			userUID:        "uid-1",
			body:           `{"access_token":""}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field AccessToken is a required field`,
		},
		{
			name:    "пользователь не найден",
			userUID: "uid-1",
			body:    `{"access_token":"tok"}`,
			setupMock: func(m *MockService) {
				m.On("SetCredential", mock.Anything, "uid-1", "tok").Return(models.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"user not found"`,
		},
		{
			name:    "ошибка сервиса",
			userUID: "uid-1",
			body:    `{"access_token":"tok"}`,
			setupMock: func(m *MockService) {
				m.On("SetCredential", mock.Anything, "uid-1", "tok").Return(errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to store credential"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/auth/callback", strings.NewReader(tt.body))
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
