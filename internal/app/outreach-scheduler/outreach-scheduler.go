package outreachscheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/outreach-scheduler/internal/cache"
	"github.com/magabrotheeeer/outreach-scheduler/internal/config"
	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/jwt"
	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/outreach-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/outreach-scheduler/internal/metrics"
	"github.com/magabrotheeeer/outreach-scheduler/internal/migrations"
	"github.com/magabrotheeeer/outreach-scheduler/internal/outreach"
	"github.com/magabrotheeeer/outreach-scheduler/internal/services/campaign"
	"github.com/magabrotheeeer/outreach-scheduler/internal/services/executor"
	"github.com/magabrotheeeer/outreach-scheduler/internal/services/scheduler"
	"github.com/magabrotheeeer/outreach-scheduler/internal/storage/repository"
)

// App объединяет HTTP-сервер, планировщик и их зависимости.
type App struct {
	server          *http.Server
	logger          *slog.Logger
	db              *repository.Storage
	cache           *cache.Cache
	amqpConn        *amqp.Connection
	amqpCh          *amqp.Channel
	scheduler       *scheduler.Scheduler
	shutdownTimeout time.Duration
}

// New подключает хранилище, кеш и брокер, применяет миграции и собирает сервисы.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = repository.CheckDatabaseReady(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetCampaignQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("connected to RabbitMQ", slog.String("exchange", rabbitmq.Exchange))

	loc, err := cfg.Scheduler.LoadLocation()
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var providers outreach.Factory
	if cfg.UseFakeProvider {
		logger.Warn("using fake outreach provider")
		providers = &outreach.Fake{}
	} else {
		providers = outreach.NewHTTPFactory(outreach.ClientConfig{
			BaseURL:      cfg.BaseURL,
			Timeout:      cfg.Outreach.Timeout,
			SendInterval: cfg.SendInterval,
		})
	}

	exec := executor.New(
		executor.StoreFunc(func(ctx context.Context) (executor.Session, error) {
			s, err := db.Session(ctx)
			if err != nil {
				return nil, err
			}
			return s, nil
		}),
		providers,
		logger,
		executor.WithPublisher(rabbitmq.NewPublisher(ch)),
		executor.WithCacheInvalidator(cacheRedis),
		executor.WithMetrics(m),
	)

	sched := scheduler.New(logger, exec,
		scheduler.WithResolution(cfg.Resolution),
		scheduler.WithWorkers(cfg.Workers),
		scheduler.WithLocation(loc),
		scheduler.WithDefaultSpec(cfg.DefaultSchedule),
		scheduler.WithMetrics(m),
	)

	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	campaignService := campaign.NewService(db, sched, tokens, cacheRedis, providers, logger, campaign.Config{
		StatsTTL:    cfg.StatsCacheTTL,
		DefaultSpec: cfg.DefaultSchedule,
	})

	router := chi.NewRouter()
	RegisterRoutes(router, RouteDeps{
		Logger:    logger,
		Campaigns: campaignService,
		Tokens:    tokens,
		DB:        db.DB,
		Registry:  sched,
		Gatherer:  reg,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:          srv,
		logger:          logger,
		db:              db,
		cache:           cacheRedis,
		amqpConn:        conn,
		amqpCh:          ch,
		scheduler:       sched,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Run восстанавливает расписание, запускает планировщик и HTTP-сервер
// и блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	const op = "app.Run"

	if _, err := a.scheduler.Bootstrap(ctx, a.db); err != nil {
		a.close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := a.scheduler.Start(ctx); err != nil {
		a.close()
		return fmt.Errorf("%s: %w", op, err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	if err := a.scheduler.Stop(timeoutCtx); err != nil {
		a.logger.Error("scheduler did not drain in time", sl.Err(err))
	}
	a.close()
	return runErr
}

func (a *App) close() {
	if err := a.amqpCh.Close(); err != nil {
		a.logger.Warn("failed to close amqp channel", sl.Err(err))
	}
	if err := a.amqpConn.Close(); err != nil {
		a.logger.Warn("failed to close amqp connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
