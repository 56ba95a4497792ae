package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/tokentalk/tokentalk/internal/config"
	"github.com/tokentalk/tokentalk/internal/delivery/httpapi"
	"github.com/tokentalk/tokentalk/internal/delivery/ws"
	"github.com/tokentalk/tokentalk/internal/domain"
	"github.com/tokentalk/tokentalk/internal/infra/db"
	"github.com/tokentalk/tokentalk/internal/infra/log"
	"github.com/tokentalk/tokentalk/internal/infra/nlp"
	"github.com/tokentalk/tokentalk/internal/infra/notify"
	"github.com/tokentalk/tokentalk/internal/infra/pricecache"
	"github.com/tokentalk/tokentalk/internal/infra/redstone"
	"github.com/tokentalk/tokentalk/internal/usecase"
	"go.uber.org/zap"
)

type App struct {
	server    *http.Server
	engine    *usecase.Engine
	logger    *zap.Logger
	cleanupFn []func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	userRepo := db.NewUserRepository(dbConn)
	alertRepo := db.NewAlertRepository(dbConn)
	notificationRepo := db.NewNotificationRepository(dbConn)
	pushRepo := db.NewPushSubscriptionRepository(dbConn)
	historyRepo := db.NewPriceHistoryRepository(dbConn)
	triggerLogRepo := db.NewTriggerLogRepository(dbConn)

	var cleanup []func() error
	cleanup = append(cleanup, func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	var feed domain.PriceFeed = redstone.NewClient(cfg.RedstoneBaseURL, cfg.RedstoneTimeout, log.Named(logger, "redstone"))
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		feed = pricecache.NewCachedFeed(feed, redisClient, cfg.PriceCacheTTL, log.Named(logger, "pricecache"))
		cleanup = append(cleanup, redisClient.Close)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := usecase.NewMetrics(registry)

	hub := ws.NewHub(log.Named(logger, "ws"))

	dispatcher := usecase.NewDispatcher(notificationRepo, cfg.DispatchTimeout, metrics, log.Named(logger, "dispatcher"))
	dispatcher.Register(notify.NewRealtimeChannel(hub))
	if cfg.ResendAPIKey != "" {
		dispatcher.Register(notify.NewEmailChannel(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.EmailFrom, userRepo, log.Named(logger, "email")))
	}
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		dispatcher.Register(notify.NewWebPushChannel(pushRepo, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber, log.Named(logger, "webpush")))
	}
	if cfg.TelegramBotToken != "" {
		api, err := notify.NewTelegramAPI(cfg.TelegramBotToken)
		if err != nil {
			logger.Warn("telegram channel disabled", zap.Error(err))
		} else {
			dispatcher.Register(notify.NewTelegramChannel(api, userRepo, log.Named(logger, "telegram")))
		}
	}

	alertUC := usecase.NewAlertUsecase(userRepo, alertRepo, notificationRepo, dispatcher, cfg.SupportedSymbols)
	userUC := usecase.NewUserUsecase(userRepo, pushRepo)

	parser := nlp.NewLLMParser(cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMTimeout, nlp.NewRuleParser(), log.Named(logger, "nlp"))
	chatUC := usecase.NewChatUsecase(parser, alertUC, userUC, log.Named(logger, "chat"))

	engine := usecase.NewEngine(
		feed,
		alertRepo,
		dispatcher,
		historyRepo,
		triggerLogRepo,
		cfg.EngineInterval,
		metrics,
		log.Named(logger, "engine"),
	)

	handler := httpapi.NewHandler(alertUC, userUC, chatUC, engine, feed, hub, cfg.VAPIDPublicKey, log.Named(logger, "http"))
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		server:    server,
		engine:    engine,
		logger:    logger,
		cleanupFn: cleanup,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("tokentalk service starting", zap.String("addr", a.server.Addr))
	a.engine.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	a.logger.Info("tokentalk service started")
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *App) Shutdown() {
	a.logger.Info("tokentalk service shutting down")
	a.engine.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http server shutdown failed", zap.Error(err))
	}

	for _, fn := range a.cleanupFn {
		if err := fn(); err != nil {
			a.logger.Warn("cleanup failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
