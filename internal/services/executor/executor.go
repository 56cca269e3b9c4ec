// Package executor выполняет один запуск кампании: поиск кандидатов,
// персонализацию сообщений, отправку запросов и запись журнала попыток.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/outreach-scheduler/internal/metrics"
	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
	"github.com/magabrotheeeer/outreach-scheduler/internal/outreach"
)

// Session — отдельное соединение с хранилищем на время одного запуска.
type Session interface {
	GetCampaign(ctx context.Context, id int64) (*models.Campaign, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// AppendLogEntries записывает все записи одной транзакцией.
	AppendLogEntries(ctx context.Context, campaignID int64, entries []models.ConnectionLogEntry) error
	Close() error
}

// Store выдаёт новую сессию на каждый запуск.
type Store interface {
	Session(ctx context.Context) (Session, error)
}

// StoreFunc адаптирует функцию к Store.
type StoreFunc func(ctx context.Context) (Session, error)

// Session реализует Store.
func (f StoreFunc) Session(ctx context.Context) (Session, error) {
	return f(ctx)
}

// Publisher публикует события о завершённых запусках.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// CacheInvalidator сбрасывает кешированную статистику владельца кампании.
type CacheInvalidator interface {
	InvalidateStats(ctx context.Context, userUID string) error
}

// RunCompleted — событие, публикуемое после успешной записи журнала.
type RunCompleted struct {
	CampaignID int64     `json:"campaign_id"`
	UserUID    string    `json:"user_uid"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	FinishedAt time.Time `json:"finished_at"`
}

// Executor запускает кампании. Безопасен для параллельного вызова,
// в том числе для одной и той же кампании.
type Executor struct {
	store     Store
	providers outreach.Factory
	log       *slog.Logger
	publisher Publisher
	cache     CacheInvalidator
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option настраивает Executor.
type Option func(*Executor)

// WithPublisher включает публикацию событий run.completed.
func WithPublisher(p Publisher) Option {
	return func(e *Executor) { e.publisher = p }
}

// WithCacheInvalidator включает сброс кеша статистики после запуска.
func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(e *Executor) { e.cache = c }
}

// WithMetrics включает учёт запусков в prometheus.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New создаёт Executor.
func New(store Store, providers outreach.Factory, log *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		store:     store,
		providers: providers,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type runResult struct {
	outcome string
	reason  string
	userUID string
	entries []models.ConnectionLogEntry
}

func skipped(reason string) runResult {
	return runResult{outcome: metrics.OutcomeSkipped, reason: reason}
}

// ExecuteRun выполняет один запуск кампании. Ошибки и паники не выходят
// за пределы метода: исход виден только по журналу, логам и метрикам.
func (e *Executor) ExecuteRun(ctx context.Context, campaignID int64) {
	const op = "executor.ExecuteRun"
	log := e.log.With(slog.String("op", op), sl.Campaign(campaignID))
	started := e.now()
	outcome := metrics.OutcomeFailed

	defer func() {
		if r := recover(); r != nil {
			log.Error("campaign run panicked", slog.Any("panic", r))
		}
		e.metrics.ObserveRun(outcome, e.now().Sub(started))
	}()

	res, err := e.run(ctx, log, campaignID)
	outcome = res.outcome
	switch {
	case err != nil:
		log.Error("campaign run failed", sl.Err(err))
		return
	case res.outcome == metrics.OutcomeSkipped:
		log.Info("campaign run skipped", slog.String("reason", res.reason))
		return
	}

	sent, failed := countStatuses(res.entries)
	e.metrics.AddAttempts(models.LogSent, sent)
	e.metrics.AddAttempts(models.LogFailed, failed)
	log.Info("campaign run completed", slog.Int("sent", sent), slog.Int("failed", failed))

	e.afterCommit(ctx, log, RunCompleted{
		CampaignID: campaignID,
		UserUID:    res.userUID,
		Sent:       sent,
		Failed:     failed,
		FinishedAt: e.now().UTC(),
	})
}

func (e *Executor) run(ctx context.Context, log *slog.Logger, campaignID int64) (runResult, error) {
	failed := runResult{outcome: metrics.OutcomeFailed}

	session, err := e.store.Session(ctx)
	if err != nil {
		return failed, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("failed to close session", sl.Err(err))
		}
	}()

	campaign, err := session.GetCampaign(ctx, campaignID)
	if errors.Is(err, models.ErrNotFound) {
		return skipped("campaign not found"), nil
	}
	if err != nil {
		return failed, fmt.Errorf("load campaign: %w", err)
	}

	user, err := session.GetUser(ctx, campaign.UserUID)
	if errors.Is(err, models.ErrNotFound) {
		return skipped("owner not found"), nil
	}
	if err != nil {
		return failed, fmt.Errorf("load owner: %w", err)
	}

	if !campaign.IsActive() {
		return skipped("campaign is " + campaign.Status), nil
	}
	if !user.HasCredential() {
		return skipped("owner has no access token"), nil
	}
	if campaign.DailyLimit <= 0 {
		return skipped("daily limit is not positive"), nil
	}

	provider := e.providers.New(*user.AccessToken)

	candidates, err := provider.SearchCandidates(ctx, campaign.SearchQuery, campaign.DailyLimit)
	if err != nil {
		return failed, fmt.Errorf("search candidates: %w", err)
	}
	if len(candidates) > campaign.DailyLimit {
		candidates = candidates[:campaign.DailyLimit]
	}
	log.Debug("candidates found", slog.Int("count", len(candidates)))

	entries := make([]models.ConnectionLogEntry, 0, len(candidates))
	for _, c := range candidates {
		message := Personalize(campaign.MessageTemplate, c)
		attemptedAt := e.now().UTC()
		ok, err := provider.SendConnectionRequest(ctx, c.ID, message)
		if err != nil {
			return failed, fmt.Errorf("send connection request to %s: %w", c.ID, err)
		}
		status := models.LogSent
		if !ok {
			status = models.LogFailed
		}
		entries = append(entries, models.ConnectionLogEntry{
			CampaignID:  campaign.ID,
			ProfileURL:  c.ProfileURL,
			MessageSent: message,
			Status:      status,
			SentAt:      &attemptedAt,
		})
	}

	if err := session.AppendLogEntries(ctx, campaign.ID, entries); err != nil {
		return failed, fmt.Errorf("persist log entries: %w", err)
	}

	return runResult{
		outcome: metrics.OutcomeCompleted,
		userUID: campaign.UserUID,
		entries: entries,
	}, nil
}

// afterCommit выполняет необязательные действия после записи журнала.
// Их ошибки только логируются.
func (e *Executor) afterCommit(ctx context.Context, log *slog.Logger, event RunCompleted) {
	if e.cache != nil {
		if err := e.cache.InvalidateStats(ctx, event.UserUID); err != nil {
			log.Warn("failed to invalidate stats cache", sl.Err(err))
		}
	}
	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, rabbitmq.RoutingRunCompleted, event); err != nil {
			log.Warn("failed to publish run event", sl.Err(err))
		}
	}
}

func countStatuses(entries []models.ConnectionLogEntry) (sent, failed int) {
	for _, entry := range entries {
		if entry.Status == models.LogSent {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed
}
