package outreachscheduler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/jwt"
	"github.com/magabrotheeeer/outreach-scheduler/internal/metrics"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type fixedLen int

func (n fixedLen) Len() int { return int(n) }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.New(reg).IncFirings()

	r := chi.NewRouter()
	RegisterRoutes(r, RouteDeps{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tokens:    jwt.NewJWTMaker("secret", 0),
		DB:        okPinger{},
		Registry:  fixedLen(2),
		Gatherer:  reg,
		RateLimit: 100,
		RateBurst: 100,
	})
	return r
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{"health", http.MethodGet, "/health", http.StatusOK, `"registered_campaigns":2`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "outreach_scheduler_firings_total 1"},
		{"кампании без токена", http.MethodGet, "/api/v1/campaigns", http.StatusUnauthorized, "missing or invalid authorization header"},
		{"статистика без токена", http.MethodGet, "/api/v1/stats", http.StatusUnauthorized, "missing or invalid authorization header"},
		{"callback без токена", http.MethodPost, "/api/v1/auth/callback", http.StatusUnauthorized, "missing or invalid authorization header"},
		{"неизвестный путь", http.MethodGet, "/nope", http.StatusNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestRoutes_InvalidToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or expired token")
}
