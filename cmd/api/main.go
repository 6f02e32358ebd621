package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/caseflow/caseflow-api/internal/config"
	"github.com/caseflow/caseflow-api/internal/handler"
	activityHandler "github.com/caseflow/caseflow-api/internal/handler/activity"
	dashboardHandler "github.com/caseflow/caseflow-api/internal/handler/dashboard"
	operatorHandler "github.com/caseflow/caseflow-api/internal/handler/operator"
	patientHandler "github.com/caseflow/caseflow-api/internal/handler/patient"
	taskHandler "github.com/caseflow/caseflow-api/internal/handler/task"
	"github.com/caseflow/caseflow-api/internal/middleware"
	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/internal/registry"
	"github.com/caseflow/caseflow-api/internal/repository/memory"
	"github.com/caseflow/caseflow-api/internal/router"
	activityService "github.com/caseflow/caseflow-api/internal/service/activity"
	eventService "github.com/caseflow/caseflow-api/internal/service/event"
	patientService "github.com/caseflow/caseflow-api/internal/service/patient"
	taskService "github.com/caseflow/caseflow-api/internal/service/task"
	verificationService "github.com/caseflow/caseflow-api/internal/service/verification"
	"github.com/caseflow/caseflow-api/internal/snapshot"
	snapshotFile "github.com/caseflow/caseflow-api/internal/snapshot/file"
	snapshotRedis "github.com/caseflow/caseflow-api/internal/snapshot/redis"
	"github.com/caseflow/caseflow-api/pkg/logger"
	messagingRedis "github.com/caseflow/caseflow-api/pkg/messaging/redis"
	"github.com/caseflow/caseflow-api/pkg/metrics"
	"github.com/caseflow/caseflow-api/pkg/security"
	"github.com/caseflow/caseflow-api/pkg/validator"
	"github.com/caseflow/caseflow-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	appLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Logging.Pretty,
	})

	if err := validator.RegisterCustom(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	m := metrics.NewMetrics("caseflow", "api")

	// Entity store and repositories
	store := memory.NewStore(
		memory.WithActivityMax(cfg.Activity.MaxEntries),
		memory.WithMetrics(m),
	)
	patientRepo := memory.NewPatientRepository(store)
	taskRepo := memory.NewTaskRepository(store)
	workflowRepo := memory.NewWorkflowRepository(store)
	activityRepo := memory.NewActivityRepository(store)
	outboxRepo := memory.NewOutboxRepository(store)

	// Snapshot persistence
	snapStore, err := newSnapshotStore(cfg.Snapshot)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize snapshot store")
	}
	if snap, err := snapStore.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load snapshot")
	} else if snap != nil {
		if err := store.Restore(context.Background(), snap); err != nil {
			log.Fatal().Err(err).Msg("failed to restore snapshot")
		}
		log.Info().
			Int("patients", len(snap.Patients)).
			Int("tasks", len(snap.Tasks)).
			Msg("restored store from snapshot")
	}
	writeThrough := snapshot.NewWriteThrough(store, snapStore, m)

	// Static registries
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	operatorSeeds := make([]registry.OperatorSeed, 0, len(cfg.Operators))
	for _, op := range cfg.Operators {
		operatorSeeds = append(operatorSeeds, registry.OperatorSeed{
			ID:             op.ID,
			Name:           op.Name,
			Role:           op.Role,
			HomeLocation:   op.HomeLocation,
			Credential:     op.Credential,
			CredentialHash: op.CredentialHash,
		})
	}
	operators, err := registry.NewOperatorDirectory(operatorSeeds, hasher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load operator directory")
	}
	taskTypes, err := registry.NewTaskTypeRegistry(taskTypesFromConfig(cfg.TaskTypes))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load task type registry")
	}

	// Services
	activitySvc := activityService.NewService(activityRepo)
	eventSvc := eventService.NewService(outboxRepo)
	patientSvc := patientService.NewService(patientRepo, taskRepo, activitySvc, eventSvc, writeThrough)
	taskSvc := taskService.NewService(taskRepo, taskTypes)
	verifier := verificationService.NewService(
		taskRepo,
		patientRepo,
		workflowRepo,
		taskTypes,
		operators,
		verificationService.NewRandomSelector(),
		writeThrough,
		m,
		appLogger,
	)

	// Router
	r := router.NewRouter(
		patientHandler.NewHandler(patientSvc),
		taskHandler.NewHandler(taskSvc, verifier),
		activityHandler.NewHandler(activitySvc),
		dashboardHandler.NewHandler(patientRepo, taskRepo, cfg.Dashboard.CacheTTL),
		operatorHandler.NewHandler(operators),
		handler.NewHandler(),
		router.Config{
			RateLimit:  rate.Limit(cfg.RateLimit.RPS),
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: middleware.DefaultCORSConfig(),
			Timeout:    time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	)
	r.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Outbox processor, when a broker is configured
	if cfg.Broker.Enabled {
		broker, err := messagingRedis.NewRedisBroker(messagingRedis.Config{
			URL:          cfg.Broker.URL,
			MaxRetries:   cfg.Broker.MaxRetries,
			RetryBackoff: cfg.Broker.RetryBackoff,
			PoolSize:     cfg.Broker.PoolSize,
			MinIdleConns: cfg.Broker.MinIdleConns,
		}, appLogger.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis broker")
		}
		defer broker.Close()

		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
		}, appLogger, m)
		go processor.Start(ctx)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func newSnapshotStore(cfg config.SnapshotConfig) (snapshot.Store, error) {
	switch cfg.Backend {
	case "redis":
		return snapshotRedis.NewStore(snapshotRedis.Config{
			URL: cfg.RedisURL,
			Key: cfg.RedisKey,
		})
	case "file", "":
		return snapshotFile.NewStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}

func taskTypesFromConfig(types map[string]config.TaskTypeConfig) map[model.TaskType]model.TaskTypeDescriptor {
	if len(types) == 0 {
		return registry.DefaultTaskTypes()
	}
	out := make(map[model.TaskType]model.TaskTypeDescriptor, len(types))
	for name, tc := range types {
		out[model.TaskType(name)] = model.TaskTypeDescriptor{
			Label:            tc.Label,
			RequiredLocation: tc.RequiredLocation,
		}
	}
	return out
}
