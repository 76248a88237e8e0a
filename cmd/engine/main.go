package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/routing-engine/internal/api/http"
	"github.com/spec-kit/routing-engine/internal/api/http/handlers"
	"github.com/spec-kit/routing-engine/internal/config"
	"github.com/spec-kit/routing-engine/internal/events"
	"github.com/spec-kit/routing-engine/internal/observability"
	"github.com/spec-kit/routing-engine/internal/persistence"
	"github.com/spec-kit/routing-engine/internal/repository"
	"github.com/spec-kit/routing-engine/internal/service"
	"github.com/spec-kit/routing-engine/internal/worker"
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
	directoryRepo := repository.NewDirectoryRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	ruleRepo := repository.NewRuleRepository(pool)
	slaRepo := repository.NewSLARepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	ledger := service.NewWorkloadLedger()

	snapshotService := service.NewSnapshotService(directoryRepo, ledger, logger, cfg.Engine.PerformanceWindowDays)
	profileService := service.NewProfileService(customerRepo, persistence.NewRedisProfileCache(redis), logger, cfg.Engine.ProfileCacheTTL())

	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Snapshots:  snapshotService,
		Profiles:   profileService,
		RuleRepo:   ruleRepo,
		RuleEngine: service.NewRuleEngine(),
		Scorer:     service.NewScoringEngine(),
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	rebalancer := service.NewRebalancer(ticketRepo, ledger, dispatcher, metrics, logger, cfg.Engine.RebalanceMovesPerAgent)
	slaService := service.NewSLAService(slaRepo, ticketRepo, dispatcher, metrics, logger, cfg.Engine.SLAWarningThreshold)

	notificationService := service.NewNotificationService(dispatcher, &service.LoggingIntentSink{Logger: logger}, logger)
	notificationService.RegisterHandlers()

	worker.NewRebalanceWorker(snapshotService, rebalancer, logger, cfg.Engine.RebalanceInterval()).Start(ctx)
	worker.NewSLAWorker(slaService, logger, cfg.Engine.SLASweepInterval()).Start(ctx)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Assignments: handlers.NewAssignmentHandler(assignmentService),
		Rebalance:   handlers.NewRebalanceHandler(snapshotService, rebalancer),
		SLA:         handlers.NewSLAHandler(slaService, ticketRepo),
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
