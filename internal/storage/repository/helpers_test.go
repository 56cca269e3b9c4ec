package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/outreach-scheduler/internal/migrations"
	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(storage))

	return storage
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает пользователя с опциональным токеном провайдера
func (f *TestDataFactory) CreateUser(t *testing.T, email, token string) *models.User {
	u, err := f.storage.GetOrCreateUserByEmail(context.Background(), email)
	require.NoError(t, err)
	if token != "" {
		require.NoError(t, f.storage.SetAccessToken(context.Background(), u.UID, token))
		u.AccessToken = &token
	}
	return u
}

// CreateCampaign создает кампанию пользователя с указанным статусом
func (f *TestDataFactory) CreateCampaign(t *testing.T, userUID, status string) int64 {
	id, err := f.storage.CreateCampaign(context.Background(), models.Campaign{
		UserUID:         userUID,
		Name:            "python recruiters",
		SearchQuery:     "recruiter python Nigeria",
		MessageTemplate: "Hi {firstName}, saw your {headline} role",
		DailyLimit:      5,
		Status:          status,
		Schedule:        "0 9 * * *",
	})
	require.NoError(t, err)
	return id
}

// CountLogs возвращает число записей журнала кампании
func (f *TestDataFactory) CountLogs(t *testing.T, campaignID int64) int {
	var count int
	err := f.storage.DB.QueryRow(`SELECT COUNT(*) FROM connection_logs WHERE campaign_id = $1`, campaignID).Scan(&count)
	require.NoError(t, err)
	return count
}
