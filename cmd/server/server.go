package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"helm-server/internal/config"
	"helm-server/internal/domain/brain"
	"helm-server/internal/domain/chat"
	"helm-server/internal/domain/conversation"
	"helm-server/internal/infrastructure/auth"
	"helm-server/internal/infrastructure/database"
	"helm-server/internal/infrastructure/llmprovider"
	"helm-server/internal/infrastructure/logger"
	"helm-server/internal/infrastructure/observability"
	"helm-server/internal/infrastructure/queue"
	brainrepo "helm-server/internal/infrastructure/repository/brain"
	conversationrepo "helm-server/internal/infrastructure/repository/conversation"
	studyrepo "helm-server/internal/infrastructure/repository/study"
	"helm-server/internal/interfaces/httpserver"
	"helm-server/internal/interfaces/httpserver/handlers"
	"helm-server/internal/worker"
)

// Application bundles the long-running pieces of the server process.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	conversationRepository := conversationrepo.NewRepository(db)
	messageRepository := conversationrepo.NewMessageRepository(db)
	brainRepository := brainrepo.NewRepository(db)
	studyRepository := studyrepo.NewRepository(db)

	llmClient := llmprovider.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	brainStore := brain.NewStore(brainRepository, llmClient, cfg.BrainHistoryWindow, log)
	detector := brain.NewDetector(cfg.BrainUpdateMessageInterval)
	contextBuilder := chat.NewContextBuilder(brainStore, studyRepository, chat.Limits{
		MaxTotalChars: cfg.MaxTotalContextChars,
		PDFMaxChars:   cfg.PDFContextMaxChars,
		NoteMaxChars:  cfg.NoteContextMaxChars,
	}, log)
	streamer := chat.NewStreamer(llmClient, log)

	conversationService := conversation.NewService(conversationRepository, messageRepository, studyRepository, log)

	taskQueue := queue.NewPostgresQueue(db, log)

	// Raw provider errors only reach clients outside production.
	trusted := cfg.Environment == "development"
	orchestrator := chat.NewOrchestrator(
		conversationRepository,
		messageRepository,
		contextBuilder,
		streamer,
		detector,
		brainStore,
		taskQueue,
		trusted,
		log,
	)

	workerPool := worker.NewPool(
		taskQueue,
		orchestrator,
		worker.Config{
			WorkerCount: cfg.BrainWorkerCount,
			TaskTimeout: cfg.BrainTaskTimeout,
		},
		log,
	)

	workerPool.Start(ctx)
	defer func() {
		log.Info().Msg("stopping worker pool")
		workerPool.Stop()
	}()

	handlerProvider := handlers.NewProvider(
		orchestrator,
		conversationService,
		brainStore,
		studyRepository,
		trusted,
		log,
	)

	httpServer := httpserver.New(cfg, log, handlerProvider, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
