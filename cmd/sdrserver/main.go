package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sdrsolar/internal/agent"
	"sdrsolar/internal/calendar"
	"sdrsolar/internal/conversation"
	"sdrsolar/internal/conversation/humanize"
	"sdrsolar/internal/crm"
	"sdrsolar/internal/events"
	"sdrsolar/internal/followup"
	"sdrsolar/internal/gateway"
	apphttp "sdrsolar/internal/http"
	"sdrsolar/internal/http/router"
	"sdrsolar/internal/knowledge"
	"sdrsolar/internal/leads/repository"
	"sdrsolar/internal/leads/scoring"
	"sdrsolar/internal/media"
	"sdrsolar/internal/metrics"
	"sdrsolar/internal/notification/outbox"
	"sdrsolar/internal/scheduler"
	"sdrsolar/internal/webhook"
	"sdrsolar/internal/adapters/storage"
	"sdrsolar/platform/ai/embeddings"
	"sdrsolar/platform/ai/llm"
	"sdrsolar/platform/config"
	"sdrsolar/platform/db"
	"sdrsolar/platform/logger"
	"sdrsolar/platform/qdrant"
	"sdrsolar/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	metricsReg := metrics.New()

	leadsRepo := repository.New(pool)
	scorer := scoring.New(cfg)
	gatewayClient := gateway.NewClient(cfg, log)

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Warn("minio not configured, media uploads disabled", "error", err)
	} else if err := withRetry(ctx, log, "ensure media bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketMedia())
	}); err != nil {
		log.Error("failed to ensure media bucket exists", "error", err)
		panic("failed to ensure media bucket exists: " + err.Error())
	}

	var transcriber *media.Transcriber
	if cfg.IsTranscriptionEnabled() {
		transcriber, err = media.NewTranscriber(cfg.GetWhisperModelPath())
		if err != nil {
			log.Warn("whisper model failed to load, voice notes will degrade to fallback text", "error", err)
			transcriber = nil
		} else {
			defer transcriber.Close()
		}
	}
	mediaPipeline := media.New(gatewayClient, storageSvc, transcriber, log)

	var embedder *embeddings.Client
	var vectors *qdrant.Client
	if cfg.IsEmbeddingEnabled() && cfg.IsQdrantEnabled() {
		embedder = embeddings.NewClient(embeddings.Config{
			BaseURL: cfg.GetEmbeddingAPIURL(),
			APIKey:  cfg.GetEmbeddingAPIKey(),
		})
		vectors = qdrant.NewClient(qdrant.Config{
			BaseURL:    cfg.GetQdrantURL(),
			APIKey:     cfg.GetQdrantAPIKey(),
			Collection: cfg.GetQdrantCollection(),
		})
	} else {
		log.Warn("embeddings or qdrant not configured, knowledge search disabled")
	}
	knowledgeRepo := knowledge.NewRepository(pool)
	knowledgeSvc := knowledge.New(knowledgeRepo, embedder, vectors, cfg)

	calendarRepo := calendar.NewRepository(pool)
	calendarProvider := calendar.NewProvider(cfg)
	humanizeSender := humanize.New(gatewayClient, cfg, log)
	calendarSvc := calendar.New(calendarRepo, calendarProvider, leadsRepo, humanizeSender, cfg, metricsReg, log)

	followUpRepo := followup.NewRepository(pool)
	followUpSvc := followup.New(followUpRepo, leadsRepo, humanizeSender, eventBus, cfg, metricsReg, log)

	crmClient := crm.NewClient(cfg, eventBus, metricsReg, log)

	modelRouter := llm.New(cfg, log)

	qualificationAgent, err := agent.NewQualificationAgent(modelRouter)
	if err != nil {
		log.Error("failed to build qualification agent", "error", err)
		panic("failed to build qualification agent: " + err.Error())
	}
	knowledgeAgent, err := agent.NewKnowledgeAgent(modelRouter, knowledgeSvc)
	if err != nil {
		log.Error("failed to build knowledge agent", "error", err)
		panic("failed to build knowledge agent: " + err.Error())
	}
	calendarAgent, err := agent.NewCalendarAgent(modelRouter, calendarProvider, calendarRepo)
	if err != nil {
		log.Error("failed to build calendar agent", "error", err)
		panic("failed to build calendar agent: " + err.Error())
	}
	crmAgent, err := agent.NewCRMAgent(modelRouter, crmClient)
	if err != nil {
		log.Error("failed to build crm agent", "error", err)
		panic("failed to build crm agent: " + err.Error())
	}
	billAnalyzerAgent, err := agent.NewBillAnalyzerAgent(modelRouter)
	if err != nil {
		log.Error("failed to build bill analyzer agent", "error", err)
		panic("failed to build bill analyzer agent: " + err.Error())
	}
	followUpAgent := agent.NewFollowUpAgent(followUpRepo)

	orchestrator, err := conversation.New(conversation.Deps{
		Repo:           leadsRepo,
		Scorer:         scorer,
		Media:          mediaPipeline,
		Sender:         humanizeSender,
		Qualification:  qualificationAgent,
		Knowledge:      knowledgeAgent,
		Calendar:       calendarAgent,
		CRM:            crmAgent,
		BillAnalyzer:   billAnalyzerAgent,
		FollowUp:       followUpAgent,
		Bus:            eventBus,
		CoordinatorLLM: modelRouter,
		Config:         cfg,
		Log:            log,
	})
	if err != nil {
		log.Error("failed to build conversation orchestrator", "error", err)
		panic("failed to build conversation orchestrator: " + err.Error())
	}

	go followUpSvc.Run(ctx)
	go calendarSvc.Run(ctx)

	outboxDispatcher, stopDispatcher := initOutboxDispatcher(cfg, pool, log)
	if stopDispatcher != nil {
		defer stopDispatcher()
	}
	if outboxDispatcher != nil {
		go outboxDispatcher.Run(ctx)
	}
	if worker := initOutboxWorker(cfg, pool, eventBus, log); worker != nil {
		go worker.Run(ctx)
	}

	val := validator.New()
	webhookModule := webhook.NewModule(orchestrator, val, log)
	metricsModule := metrics.NewModule(metricsReg)

	outboxRepo := outbox.New(pool)
	outbox.NewSubscriber(outboxRepo, eventBus, log)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			webhookModule,
			metricsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initOutboxDispatcher(cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) (*scheduler.NotificationOutboxDispatcher, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; notification outbox dispatch is disabled")
		return nil, nil
	}
	dispatcher, err := scheduler.NewNotificationOutboxDispatcher(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize notification outbox dispatcher", "error", err)
		return nil, nil
	}
	return dispatcher, func() { _ = dispatcher.Close() }
}

func initOutboxWorker(cfg *config.Config, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *scheduler.Worker {
	if cfg.GetRedisURL() == "" {
		return nil
	}
	worker, err := scheduler.NewWorker(cfg, pool, bus, log)
	if err != nil {
		log.Error("failed to initialize notification outbox worker", "error", err)
		return nil
	}
	return worker
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
