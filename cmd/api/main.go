package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/fluxo-portal/internal/api/http"
	"github.com/spec-kit/fluxo-portal/internal/api/http/handlers"
	"github.com/spec-kit/fluxo-portal/internal/auth"
	"github.com/spec-kit/fluxo-portal/internal/config"
	"github.com/spec-kit/fluxo-portal/internal/events"
	"github.com/spec-kit/fluxo-portal/internal/observability"
	"github.com/spec-kit/fluxo-portal/internal/persistence"
	"github.com/spec-kit/fluxo-portal/internal/repository"
	"github.com/spec-kit/fluxo-portal/internal/service"
	"github.com/spec-kit/fluxo-portal/internal/session"
	"github.com/spec-kit/fluxo-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, persistence.MigrateUp, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	probes := map[string]handlers.Pinger{"postgres": pg}

	var store session.Store
	switch cfg.Session.Store {
	case config.SessionStoreMemory:
		logger.Warn("using in-memory session store; sessions are lost on restart")
		store = session.NewMemoryStore()
	default:
		redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redis.Close()
		probes["redis"] = redis
		store = session.NewRedisStore(redis.Client)
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requestRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	sessions := session.NewManager(store, auth.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL()), session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL(),
		Secure:     cfg.Session.Secure,
	}, logger)

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, probes, metrics),
		Pages:     handlers.NewPagesHandler(requestService),
		Auth:      handlers.NewAuthHandler(authService),
		Admin:     handlers.NewAdminHandler(authService),
		Dashboard: handlers.NewDashboardHandler(requestService),
		Sessions:  sessions,
	})

	go func() {
		logger.Info("Servidor Fluxo Softwares disponível", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
