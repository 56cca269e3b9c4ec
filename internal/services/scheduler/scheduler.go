// Package scheduler хранит расписания кампаний и запускает их по cron-выражениям.
//
// Один фоновый цикл проверяет, какие триггеры наступили, и передаёт запуск
// исполнителю в отдельной горутине. Число одновременных запусков ограничено
// семафором.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/outreach-scheduler/internal/metrics"
	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

// ErrStopped возвращается при повторном запуске остановленного планировщика.
var ErrStopped = errors.New("scheduler is stopped")

// Runner выполняет запуск кампании. Ошибки обрабатываются внутри.
type Runner interface {
	ExecuteRun(ctx context.Context, campaignID int64)
}

// CampaignSource отдаёт активные кампании для восстановления расписания.
type CampaignSource interface {
	ListActiveCampaigns(ctx context.Context) ([]models.ActiveCampaign, error)
}

type entry struct {
	spec     Spec
	ownerUID string
	next     time.Time
}

// Scheduler — реестр триггеров кампаний с фоновым циклом проверки.
type Scheduler struct {
	log         *slog.Logger
	runner      Runner
	metrics     *metrics.Metrics
	resolution  time.Duration
	loc         *time.Location
	now         func() time.Time
	defaultSpec string

	mu      sync.Mutex
	entries map[int64]*entry
	started bool
	stopped bool

	sem        *semaphore.Weighted
	inflight   sync.WaitGroup
	runCtx     context.Context
	cancelRuns context.CancelFunc
	quit       chan struct{}
	loopDone   chan struct{}
}

// Option настраивает Scheduler.
type Option func(*Scheduler)

// WithResolution задаёт период проверки триггеров.
func WithResolution(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.resolution = d
		}
	}
}

// WithWorkers ограничивает число одновременных запусков.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithLocation задаёт часовой пояс, в котором вычисляются cron-выражения.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMetrics включает учёт реестра и срабатываний.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithDefaultSpec задаёт расписание для кампаний без собственного.
func WithDefaultSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.defaultSpec = spec
		}
	}
}

// New создаёт планировщик. Цикл проверки запускается методом Start.
func New(log *slog.Logger, runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		log:         log,
		runner:      runner,
		resolution:  time.Second,
		loc:         time.Local,
		now:         time.Now,
		defaultSpec: DefaultSpec,
		entries:     make(map[int64]*entry),
		sem:         semaphore.NewWeighted(1),
		quit:        make(chan struct{}),
		loopDone:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.runCtx, s.cancelRuns = context.WithCancel(context.Background())
	return s
}

// Start запускает фоновый цикл. Цикл завершается при отмене ctx или вызове Stop;
// отмена ctx не прерывает уже идущие запуски.
func (s *Scheduler) Start(ctx context.Context) error {
	const op = "scheduler.Start"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("%s: %w", op, ErrStopped)
	}
	if s.started {
		return fmt.Errorf("%s: already started", op)
	}
	s.started = true

	go s.loop(ctx)
	s.log.Info("scheduler started",
		slog.Duration("resolution", s.resolution),
		slog.String("location", s.loc.String()),
		slog.Int("registered", len(s.entries)))
	return nil
}

// Stop останавливает цикл и ждёт завершения идущих запусков.
// Если ctx истекает раньше, контекст запусков отменяется и возвращается ошибка.
func (s *Scheduler) Stop(ctx context.Context) error {
	const op = "scheduler.Stop"
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.quit)
	}
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.loopDone
	}

	drained := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		s.cancelRuns()
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancelRuns()
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// RegisterCampaign регистрирует или заменяет триггер кампании.
// Пустой spec означает расписание по умолчанию.
func (s *Scheduler) RegisterCampaign(campaignID int64, ownerUID, spec string) error {
	const op = "scheduler.RegisterCampaign"
	if spec == "" {
		spec = s.defaultSpec
	}
	parsed, err := ParseSpec(spec)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	next := parsed.Next(s.now().In(s.loc))

	s.mu.Lock()
	_, replaced := s.entries[campaignID]
	s.entries[campaignID] = &entry{spec: parsed, ownerUID: ownerUID, next: next}
	n := len(s.entries)
	s.mu.Unlock()

	s.metrics.SetRegistered(n)
	s.log.Info("campaign registered",
		sl.Campaign(campaignID),
		slog.String("spec", parsed.String()),
		slog.Time("next_run", next),
		slog.Bool("replaced", replaced))
	return nil
}

// UnregisterCampaign удаляет триггер кампании. Идущие запуски не прерываются.
func (s *Scheduler) UnregisterCampaign(campaignID int64) {
	s.mu.Lock()
	_, ok := s.entries[campaignID]
	delete(s.entries, campaignID)
	n := len(s.entries)
	s.mu.Unlock()

	if !ok {
		return
	}
	s.metrics.SetRegistered(n)
	s.log.Info("campaign unregistered", sl.Campaign(campaignID))
}

// Registered сообщает, есть ли триггер у кампании.
func (s *Scheduler) Registered(campaignID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[campaignID]
	return ok
}

// NextRun возвращает время следующего срабатывания кампании.
func (s *Scheduler) NextRun(campaignID int64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[campaignID]
	if !ok {
		return time.Time{}, false
	}
	return e.next, true
}

// Len возвращает число зарегистрированных кампаний.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Bootstrap регистрирует все активные кампании из source.
// Кампании с некорректным расписанием пропускаются.
func (s *Scheduler) Bootstrap(ctx context.Context, source CampaignSource) (int, error) {
	const op = "scheduler.Bootstrap"
	campaigns, err := source.ListActiveCampaigns(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	registered := 0
	for _, ac := range campaigns {
		if ac.Campaign == nil {
			continue
		}
		if err := s.RegisterCampaign(ac.Campaign.ID, ac.UserUID, ac.Campaign.Schedule); err != nil {
			s.log.Warn("skipping campaign with invalid schedule", sl.Campaign(ac.Campaign.ID), sl.Err(err))
			continue
		}
		registered++
	}
	s.log.Info("schedule restored", slog.Int("campaigns", registered))
	return registered, nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.loopDone)
	ticker := time.NewTicker(s.resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-ticker.C:
			s.fireDue(s.now())
		}
	}
}

// fireDue запускает каждую кампанию, чей триггер наступил к now.
// Пропущенные срабатывания объединяются в одно.
func (s *Scheduler) fireDue(now time.Time) {
	now = now.In(s.loc)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	var due []int64
	for id, e := range s.entries {
		if e.next.IsZero() || now.Before(e.next) {
			continue
		}
		due = append(due, id)
		e.next = e.spec.Next(now)
	}
	// inflight увеличивается под мьютексом, чтобы Stop не пропустил запуск
	s.inflight.Add(len(due))
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })
	for _, id := range due {
		s.metrics.IncFirings()
		go s.dispatch(id)
	}
}

func (s *Scheduler) dispatch(campaignID int64) {
	defer s.inflight.Done()
	if err := s.sem.Acquire(s.runCtx, 1); err != nil {
		s.log.Warn("campaign run dropped", sl.Campaign(campaignID), sl.Err(err))
		return
	}
	defer s.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("campaign runner panicked", sl.Campaign(campaignID), slog.Any("panic", r))
		}
	}()
	s.log.Debug("campaign run dispatched", sl.Campaign(campaignID))
	s.runner.ExecuteRun(s.runCtx, campaignID)
}
