// Package campaign содержит пользовательские операции: вход, привязку токена
// провайдера, управление кампаниями и статистику.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/outreach-scheduler/internal/cache"
	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
	"github.com/magabrotheeeer/outreach-scheduler/internal/outreach"
	"github.com/magabrotheeeer/outreach-scheduler/internal/services/scheduler"
)

var (
	// ErrInvalidSchedule — расписание кампании не разбирается.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrInvalidStatus — неизвестный статус кампании.
	ErrInvalidStatus = errors.New("invalid campaign status")
	// ErrEmptyToken — пустой токен провайдера.
	ErrEmptyToken = errors.New("access token is empty")
	// ErrNoCredential — пользователь не привязал провайдера.
	ErrNoCredential = errors.New("user has no access token")
	// ErrStatsUnsupported — провайдер не отдаёт статистику подключений.
	ErrStatsUnsupported = errors.New("provider does not report connection stats")
)

// Repository определяет методы хранилища, нужные сервису.
type Repository interface {
	GetOrCreateUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SetAccessToken(ctx context.Context, userUID, token string) error
	CreateCampaign(ctx context.Context, c models.Campaign) (int64, error)
	GetCampaign(ctx context.Context, id int64) (*models.Campaign, error)
	ListCampaignsByUser(ctx context.Context, userUID string) ([]*models.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, id int64, userUID, status string) error
	DeleteCampaign(ctx context.Context, id int64, userUID string) error
	ListLogEntries(ctx context.Context, campaignID int64, limit int) ([]models.ConnectionLogEntry, error)
	CountLogEntriesByUser(ctx context.Context, userUID string) (int, error)
}

// Registry — реестр триггеров планировщика.
type Registry interface {
	RegisterCampaign(campaignID int64, ownerUID, spec string) error
	UnregisterCampaign(campaignID int64)
}

// TokenMaker выпускает токен сессии.
type TokenMaker interface {
	GenerateToken(userUID, email string) (string, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует пользовательские операции над кампаниями.
type Service struct {
	repo        Repository
	registry    Registry
	tokens      TokenMaker
	cache       Cache
	providers   outreach.Factory
	log         *slog.Logger
	statsTTL    time.Duration
	defaultSpec string
}

// Config — параметры сервиса.
type Config struct {
	StatsTTL    time.Duration
	DefaultSpec string
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, registry Registry, tokens TokenMaker, cache Cache,
	providers outreach.Factory, log *slog.Logger, cfg Config) *Service {
	if cfg.DefaultSpec == "" {
		cfg.DefaultSpec = scheduler.DefaultSpec
	}
	return &Service{
		repo:        repo,
		registry:    registry,
		tokens:      tokens,
		cache:       cache,
		providers:   providers,
		log:         log,
		statsTTL:    cfg.StatsTTL,
		defaultSpec: cfg.DefaultSpec,
	}
}

// Login возвращает пользователя по почте, создавая его при первом входе, и токен сессии.
func (s *Service) Login(ctx context.Context, email string) (string, *models.User, error) {
	const op = "campaign.Login"
	user, err := s.repo.GetOrCreateUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	token, err := s.tokens.GenerateToken(user.UID, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user logged in", slog.String("user_uid", user.UID))
	return token, user, nil
}

// SetCredential сохраняет токен провайдера, полученный после авторизации.
func (s *Service) SetCredential(ctx context.Context, userUID, accessToken string) error {
	const op = "campaign.SetCredential"
	if accessToken == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyToken)
	}
	if err := s.repo.SetAccessToken(ctx, userUID, accessToken); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("provider credential stored", slog.String("user_uid", userUID))
	return nil
}

// Create сохраняет кампанию и регистрирует её в планировщике.
func (s *Service) Create(ctx context.Context, userUID string, req models.CampaignRequest) (*models.Campaign, error) {
	const op = "campaign.Create"
	c := models.Campaign{
		UserUID:         userUID,
		Name:            req.Name,
		SearchQuery:     req.SearchQuery,
		MessageTemplate: req.MessageTemplate,
		DailyLimit:      req.DailyLimit,
		Status:          models.CampaignActive,
		Schedule:        req.Schedule,
	}
	if c.DailyLimit == 0 {
		c.DailyLimit = models.DefaultDailyLimit
	}
	if c.Schedule == "" {
		c.Schedule = s.defaultSpec
	}
	spec, err := scheduler.ParseSpec(c.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidSchedule, err)
	}
	c.Schedule = spec.String()

	id, err := s.repo.CreateCampaign(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.ID = id
	s.log.Info("created new campaign", sl.Campaign(id), slog.String("user_uid", userUID))

	if err := s.registry.RegisterCampaign(id, userUID, c.Schedule); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateStats(ctx, userUID)
	return &c, nil
}

// List возвращает кампании пользователя.
func (s *Service) List(ctx context.Context, userUID string) ([]*models.Campaign, error) {
	const op = "campaign.List"
	campaigns, err := s.repo.ListCampaignsByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return campaigns, nil
}

// Get возвращает кампанию, если она принадлежит пользователю.
func (s *Service) Get(ctx context.Context, userUID string, id int64) (*models.Campaign, error) {
	const op = "campaign.Get"
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c.UserUID != userUID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return c, nil
}

// SetStatus меняет статус кампании. Триггер планировщика сохраняется:
// приостановленная кампания пропускается исполнителем. При возобновлении
// триггер регистрируется заново, так как после рестарта восстанавливаются
// только активные кампании.
func (s *Service) SetStatus(ctx context.Context, userUID string, id int64, status string) error {
	const op = "campaign.SetStatus"
	switch status {
	case models.CampaignActive, models.CampaignPaused, models.CampaignCompleted:
	default:
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidStatus, status)
	}

	c, err := s.Get(ctx, userUID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateCampaignStatus(ctx, id, userUID, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if status == models.CampaignActive {
		if err := s.registry.RegisterCampaign(id, userUID, c.Schedule); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	s.log.Info("campaign status changed", sl.Campaign(id), slog.String("status", status))
	s.invalidateStats(ctx, userUID)
	return nil
}

// Delete удаляет кампанию вместе с журналом и снимает триггер.
func (s *Service) Delete(ctx context.Context, userUID string, id int64) error {
	const op = "campaign.Delete"
	if err := s.repo.DeleteCampaign(ctx, id, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.registry.UnregisterCampaign(id)
	s.log.Info("campaign deleted", sl.Campaign(id))
	s.invalidateStats(ctx, userUID)
	return nil
}

// Logs возвращает последние записи журнала кампании, новые первыми.
func (s *Service) Logs(ctx context.Context, userUID string, id int64, limit int) ([]models.ConnectionLogEntry, error) {
	const op = "campaign.Logs"
	if _, err := s.Get(ctx, userUID, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entries, err := s.repo.ListLogEntries(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

// Stats возвращает агрегированную статистику пользователя, используя кеш.
func (s *Service) Stats(ctx context.Context, userUID string) (*models.Stats, error) {
	const op = "campaign.Stats"
	key := cache.StatsKey(userUID)

	var cached models.Stats
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read stats from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	campaigns, err := s.repo.ListCampaignsByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	total, err := s.repo.CountLogEntriesByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats := models.Stats{CampaignsCount: len(campaigns), TotalRequests: total}
	for _, c := range campaigns {
		if c.IsActive() {
			stats.ActiveCampaigns++
		}
	}

	if err := s.cache.Set(ctx, key, stats, s.statsTTL); err != nil {
		s.log.Warn("failed to cache stats", slog.String("key", key), sl.Err(err))
	}
	return &stats, nil
}

// ProviderStats запрашивает статистику подключений у провайдера пользователя.
func (s *Service) ProviderStats(ctx context.Context, userUID string) (*outreach.ConnectionStats, error) {
	const op = "campaign.ProviderStats"
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.HasCredential() {
		return nil, fmt.Errorf("%s: %w", op, ErrNoCredential)
	}
	reporter, ok := s.providers.New(*user.AccessToken).(outreach.StatsReporter)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrStatsUnsupported)
	}
	stats, err := reporter.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

func (s *Service) invalidateStats(ctx context.Context, userUID string) {
	key := cache.StatsKey(userUID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
	}
}
