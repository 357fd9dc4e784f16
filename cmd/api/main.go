package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/financing-service/internal/api/http"
	"github.com/spec-kit/financing-service/internal/api/http/handlers"
	"github.com/spec-kit/financing-service/internal/auth"
	"github.com/spec-kit/financing-service/internal/config"
	"github.com/spec-kit/financing-service/internal/events"
	"github.com/spec-kit/financing-service/internal/observability"
	"github.com/spec-kit/financing-service/internal/persistence"
	"github.com/spec-kit/financing-service/internal/realtime"
	"github.com/spec-kit/financing-service/internal/repository"
	"github.com/spec-kit/financing-service/internal/service"
	"github.com/spec-kit/financing-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	applicationRepo := repository.NewApplicationRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	blacklist := auth.NewRedisBlacklist(redis.Client, cfg.Auth.RevocationTimeout())
	authenticator := auth.NewAuthenticator(tokenManager, blacklist)
	authMiddleware := auth.NewMiddleware(authenticator, logger)

	dispatcher := events.NewDispatcher(logger)
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	hub := realtime.NewHub(logger, metrics)
	realtimeHandler := realtime.NewHandler(hub, authenticator, cfg.Realtime, logger)

	authService := service.NewAuthService(userRepo, tokenManager, blacklist, dispatcher, cfg.Auth.BcryptCost)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, hub, logger)
	applicationService := service.NewApplicationService(applicationRepo, notificationService, dispatcher, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, hub),
		Users:          handlers.NewUsersHandler(authService),
		Applications:   handlers.NewApplicationsHandler(applicationService),
		Admin:          handlers.NewAdminHandler(authService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Realtime:       realtimeHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
