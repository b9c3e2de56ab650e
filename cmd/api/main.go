package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/bumex/engagement-service/internal/api/http"
	"github.com/bumex/engagement-service/internal/api/http/handlers"
	"github.com/bumex/engagement-service/internal/auth"
	"github.com/bumex/engagement-service/internal/config"
	"github.com/bumex/engagement-service/internal/events"
	"github.com/bumex/engagement-service/internal/mailer"
	"github.com/bumex/engagement-service/internal/observability"
	"github.com/bumex/engagement-service/internal/persistence"
	"github.com/bumex/engagement-service/internal/repository"
	"github.com/bumex/engagement-service/internal/service"
	"github.com/bumex/engagement-service/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	otpRepo := repository.NewOTPRepository(redis.Client)
	sessionRepo := repository.NewSessionRepository(redis.Client)

	var mail mailer.Mailer
	if cfg.Mailer.APIKey != "" {
		mail = mailer.NewMailerSendMailer(cfg.Mailer.APIKey, cfg.Mailer.FromName, cfg.Mailer.FromEmail)
	} else {
		logger.Warn("MAILERSEND_API_KEY not set; using dev mailer")
		mail = mailer.NewDevMailer(logger)
	}

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		OTPRepo:           otpRepo,
		SessionRepo:       sessionRepo,
		PasswordResetRepo: resetRepo,
		Mailer:            mail,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})
	projectService := service.NewProjectService(projectRepo, userRepo, dispatcher)
	reviewService := service.NewReviewService(projectRepo, dispatcher)
	adminService := service.NewUserAdminService(userRepo, dispatcher)
	auditTrail := service.NewAuditTrailService(auditRepo, dispatcher, logger)
	notifications := service.NewNotificationService(dispatcher, projectRepo, userRepo, mail, logger)
	worker.StartSubscribers(auditTrail, notifications)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), authService)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Projects:       handlers.NewProjectsHandler(projectService),
		Reviews:        handlers.NewReviewsHandler(reviewService),
		AdminUsers:     handlers.NewAdminUsersHandler(adminService),
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
