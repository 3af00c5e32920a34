package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-core/internal/api/http"
	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/persistence"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/service"
	"github.com/spec-kit/helpdesk-core/internal/worker"
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
	storeTimeout := cfg.App.StoreTimeout()
	ticketRepo := repository.NewTicketRepository(pool, storeTimeout)
	commentRepo := repository.NewCommentRepository(pool, storeTimeout)
	transactionRepo := repository.NewTransactionRepository(pool, storeTimeout)
	profileRepo := repository.NewProfileRepository(pool, storeTimeout)
	auditRepo := repository.NewAuditRepository(pool, storeTimeout)
	resetRepo := repository.NewPasswordResetRepository(pool, storeTimeout)

	dispatcher := events.NewRedisDispatcher(events.NewInMemoryDispatcher(), redis.ClientHandle(), cfg.Redis.EventChannel, logger)
	metrics := observability.NewMetrics()

	guard := service.NewGuard()
	auditService := service.NewAuditService(auditRepo, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		ProfileRepo: profileRepo,
		Guard:       guard,
		Audit:       auditService,
		Dispatcher:  dispatcher,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  ticketRepo,
		ProfileRepo: profileRepo,
		Guard:       guard,
		Audit:       auditService,
		Dispatcher:  dispatcher,
	})
	pricingService := service.NewPricingService(service.PricingDependencies{
		TicketRepo:      ticketRepo,
		TransactionRepo: transactionRepo,
		ProfileRepo:     profileRepo,
		Guard:           guard,
		Audit:           auditService,
		Dispatcher:      dispatcher,
	})
	ledgerService := service.NewLedgerService(service.LedgerDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		ProfileRepo: profileRepo,
		Guard:       guard,
		Audit:       auditService,
		Dispatcher:  dispatcher,
	})
	profileService := service.NewProfileService(profileRepo)
	exchangeService := service.NewExchangeService(ticketRepo, profileRepo, auditService)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		ProfileRepo:       profileRepo,
		PasswordResetRepo: resetRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), profileRepo)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService, ledgerService, profileService),
		Pricing:        handlers.NewPricingHandler(pricingService),
		Exchange:       handlers.NewExchangeHandler(exchangeService),
		Audit:          handlers.NewAuditHandler(auditService, profileService),
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
