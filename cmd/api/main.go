package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/whatsapp-crm/internal/api/http"
	"github.com/spec-kit/whatsapp-crm/internal/api/http/handlers"
	"github.com/spec-kit/whatsapp-crm/internal/auth"
	"github.com/spec-kit/whatsapp-crm/internal/broker"
	"github.com/spec-kit/whatsapp-crm/internal/config"
	"github.com/spec-kit/whatsapp-crm/internal/events"
	"github.com/spec-kit/whatsapp-crm/internal/media"
	"github.com/spec-kit/whatsapp-crm/internal/message"
	"github.com/spec-kit/whatsapp-crm/internal/observability"
	"github.com/spec-kit/whatsapp-crm/internal/persistence"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
	"github.com/spec-kit/whatsapp-crm/internal/service"
	"github.com/spec-kit/whatsapp-crm/internal/worker"
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

	objectStore, err := persistence.NewObjectStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to connect object storage", zap.Error(err))
	}

	publisher, err := broker.NewPublisher(cfg.Broker, logger)
	if err != nil {
		logger.Fatal("failed to connect broker", zap.Error(err))
	}
	defer publisher.Close() //nolint:errcheck

	pool := pg.PoolHandle()
	leadRepo := repository.NewLeadRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	instanceRepo := repository.NewInstanceRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	validator := message.NewValidator(logger)
	resolver := service.NewLeadResolver(leadRepo, logger)

	var mediaIngestor *media.Ingestor
	if objectStore != nil {
		mediaIngestor = media.NewIngestor(objectStore, nil, logger)
	}

	authService := service.NewAuthService(*cfg, agentRepo)
	leadService := service.NewLeadService(leadRepo, resolver, dispatcher, logger)
	conversationService := service.NewConversationService(conversationRepo, messageRepo, validator, dispatcher, logger)
	mediaService := service.NewMediaService(objectStore, messageRepo, redis, logger)
	instanceService := service.NewInstanceService(instanceRepo)
	ingestService := service.NewIngestService(service.IngestServiceDependencies{
		Leads:         leadRepo,
		Conversations: conversationRepo,
		Messages:      messageRepo,
		Resolver:      resolver,
		Validator:     validator,
		Media:         mediaIngestor,
		Dispatcher:    dispatcher,
		Redis:         redis,
		Logger:        logger,
	})

	webhookService := service.NewWebhookService(dispatcher, publisher, logger)
	senderService := service.NewSenderService(conversationRepo, messageRepo, instanceRepo, leadRepo, nil, cfg.Gateway, logger)
	worker.StartWebhookWorker(webhookService)
	worker.StartSenderWorker(senderService, dispatcher)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), agentRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, objectStore, publisher),
		Agents:         handlers.NewAgentsHandler(authService),
		Webhooks:       handlers.NewWebhookHandler(instanceRepo, ingestService, logger),
		Leads:          handlers.NewLeadsHandler(leadService),
		Conversations:  handlers.NewConversationsHandler(conversationService, mediaService),
		Instances:      handlers.NewInstancesHandler(instanceService),
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
