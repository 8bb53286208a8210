package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron"

	"github.com/lexiday/lexiday-api/internal/config"
	"github.com/lexiday/lexiday-api/internal/cost"
	"github.com/lexiday/lexiday-api/internal/domain/srs"
	"github.com/lexiday/lexiday-api/internal/events"
	"github.com/lexiday/lexiday-api/internal/generation"
	"github.com/lexiday/lexiday-api/internal/platform/gemini"
	"github.com/lexiday/lexiday-api/internal/platform/postgres"
	"github.com/lexiday/lexiday-api/internal/service"
	"github.com/lexiday/lexiday-api/internal/task"
)

// application holds the fully wired dependency graph.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	costMonitor *cost.Monitor
	taskRunner  *task.TaskRunner
	scheduler   *gocron.Scheduler

	dailyService      *service.DailyService
	wordbankService   *service.WordbankService
	onboardingService *service.OnboardingService
}

// newApplication wires every component: database, stores, generation
// pipeline, background task runner, services and the cron scheduler.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	// Stores.
	userStore := postgres.NewUserStore(db, logger)
	topicStore := postgres.NewTopicStore(db, logger)
	termStore := postgres.NewTermStore(db, logger)
	wordbankStore := postgres.NewWordbankStore(db, logger)
	deliveryStore := postgres.NewDeliveryStore(db, logger)

	// Generation pipeline: Gemini behind the cached, rate-limited,
	// cost-tracked client.
	costMonitor := cost.NewMonitor(cost.Config{
		HourlyCeilingUSD: cfg.Cost.HourlyCeilingUSD,
		DailyCeilingUSD:  cfg.Cost.DailyCeilingUSD,
	}, logger)

	generator, err := gemini.NewGenerator(context.Background(), logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini generator: %w", err)
	}

	genClient := generation.NewClient(generator, costMonitor, generation.ClientConfig{
		CacheMaxEntries: cfg.Generation.CacheMaxEntries,
	}, logger)

	// Background tasks.
	userService := service.NewUserService(userStore)
	topicService := service.NewTopicService(topicStore)
	termService := service.NewTermService(db, termStore, logger)

	taskFactory := task.NewGenerationTaskFactory(userService, topicService, genClient, termService, logger)
	taskStore := postgres.NewTaskStore(db, taskFactory, logger)
	taskRunner := task.NewTaskRunner(taskStore, task.TaskRunnerConfig{
		WorkerCount:  cfg.Task.WorkerCount,
		QueueSize:    cfg.Task.QueueSize,
		MaxAttempts:  cfg.Task.MaxAttempts,
		StuckTaskAge: cfg.Task.StuckTaskAge,
		TypeConcurrency: map[string]int64{
			task.TaskTypeGeneration: int64(cfg.Task.GenerationConcurrency),
		},
	}, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewGenerationEventHandler(taskFactory, taskRunner, logger))

	// Application services.
	srsService := srs.NewDefaultService()
	dailyService := service.NewDailyService(
		db,
		userStore,
		topicStore,
		termStore,
		wordbankStore,
		deliveryStore,
		srsService,
		emitter,
		service.DailyServiceConfig{
			BacklogPollInterval: cfg.Generation.BacklogPollInterval,
			BacklogWaitDeadline: cfg.Generation.BacklogWaitDeadline,
		},
		logger,
	)
	wordbankService := service.NewWordbankService(db, wordbankStore, srsService, logger)
	onboardingService := service.NewOnboardingService(db, userStore, topicStore, emitter, logger)

	app := &application{
		config:            cfg,
		logger:            logger,
		db:                db,
		costMonitor:       costMonitor,
		taskRunner:        taskRunner,
		dailyService:      dailyService,
		wordbankService:   wordbankService,
		onboardingService: onboardingService,
	}
	app.scheduler = app.setupScheduler()

	return app, nil
}

// Run starts the task runner, the cron scheduler and the HTTP server, then
// blocks until shutdown.
func (app *application) Run() error {
	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	app.scheduler.StartAsync()

	return app.startHTTPServer(context.Background(), app.setupRouter())
}

// cleanup releases resources in reverse start order.
func (app *application) cleanup() {
	app.scheduler.Stop()
	app.taskRunner.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}
}
