package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/inbox-service/internal/api/http"
	"github.com/spec-kit/inbox-service/internal/api/http/handlers"
	"github.com/spec-kit/inbox-service/internal/auth"
	"github.com/spec-kit/inbox-service/internal/channel"
	"github.com/spec-kit/inbox-service/internal/config"
	"github.com/spec-kit/inbox-service/internal/events"
	"github.com/spec-kit/inbox-service/internal/observability"
	"github.com/spec-kit/inbox-service/internal/persistence"
	"github.com/spec-kit/inbox-service/internal/realtime"
	"github.com/spec-kit/inbox-service/internal/repository"
	"github.com/spec-kit/inbox-service/internal/service"
	"github.com/spec-kit/inbox-service/internal/worker"
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

	metrics := observability.NewMetrics(nil)
	dispatcher := events.NewInMemoryDispatcher()
	registry := channel.NewRegistry()
	locks := service.NewKeyedLocks()

	pool := pg.PoolHandle()
	contactRepo := repository.NewContactRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	trackingRepo := repository.NewTrackingRepository(pool)
	endpointRepo := repository.NewEndpointRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	logRepo := repository.NewTicketLogRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	queueRepo := repository.NewQueueRepository(pool)
	tagRepo := repository.NewTagRepository(pool)

	deduper := persistence.NewRedisDeduper(redis.Client, cfg.Engine.DedupTTL(), logger)
	notifier := realtime.NewRedisNotifier(redis.Client, logger)

	messenger := service.NewMessenger(service.MessengerDependencies{
		MessageRepo: messageRepo,
		TicketRepo:  ticketRepo,
		Dispatcher:  dispatcher,
		SendTimeout: cfg.Engine.SendTimeout(),
		Logger:      logger,
		Metrics:     metrics,
	})
	contactService := service.NewContactService(contactRepo, dispatcher, logger)
	resolver := service.NewTicketResolver(ticketRepo, trackingRepo, settingsRepo, dispatcher, logger)

	debouncer := service.NewDebouncer(cfg.Engine.DebounceWindow(), metrics.CoalescedRenders.Inc)
	defer debouncer.Stop()

	surveyGate := service.NewSurveyGate(ticketRepo, trackingRepo, messenger, dispatcher, metrics, logger)
	consentGate := service.NewConsentGate(contactRepo, ticketRepo, trackingRepo, messenger, logger)
	queueRouter := service.NewQueueRouter(ticketRepo, trackingRepo, messenger, debouncer, dispatcher, metrics, logger)

	inboundService := service.NewInboundService(service.InboundServiceDependencies{
		Deduper:        deduper,
		EndpointRepo:   endpointRepo,
		SettingsRepo:   settingsRepo,
		Registry:       registry,
		ContactService: contactService,
		TicketResolver: resolver,
		Messenger:      messenger,
		Locks:          locks,
		SurveyGate:     surveyGate,
		ConsentGate:    consentGate,
		QueueRouter:    queueRouter,
		Metrics:        metrics,
		Logger:         logger,
	})

	updateService := service.NewUpdateTicketService(service.UpdateTicketServiceDependencies{
		TicketRepo:     ticketRepo,
		TrackingRepo:   trackingRepo,
		ContactRepo:    contactRepo,
		EndpointRepo:   endpointRepo,
		SettingsRepo:   settingsRepo,
		AgentRepo:      agentRepo,
		QueueRepo:      queueRepo,
		TagRepo:        tagRepo,
		LogRepo:        logRepo,
		Registry:       registry,
		Messenger:      messenger,
		TicketResolver: resolver,
		Dispatcher:     dispatcher,
		Locks:          locks,
		Metrics:        metrics,
		Logger:         logger,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(agentRepo, tokenManager, logger)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, agentRepo)

	notifications := service.NewNotificationService(notifier, logger)
	worker.RegisterNotificationHandlers(dispatcher, notifications, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, registry),
		Webhooks:       handlers.NewWebhooksHandler(inboundService, endpointRepo, cfg.Webhook.MetaVerifyToken, logger),
		Tickets:        handlers.NewTicketsHandler(updateService, messageRepo),
		Agents:         handlers.NewAgentsHandler(authService),
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
