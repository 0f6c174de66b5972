// NeuroClass Hub server: REST API for adaptive tutoring sessions plus the
// WebSocket drawing-board relay.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/neuroclass/neuroclass-hub/config"
	"github.com/neuroclass/neuroclass-hub/internal/application/command"
	"github.com/neuroclass/neuroclass-hub/internal/application/eventhandler"
	"github.com/neuroclass/neuroclass-hub/internal/application/query"
	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
	"github.com/neuroclass/neuroclass-hub/internal/infrastructure/messaging"
	"github.com/neuroclass/neuroclass-hub/internal/infrastructure/persistence/memory"
	"github.com/neuroclass/neuroclass-hub/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/neuroclass/neuroclass-hub/internal/infrastructure/persistence/redis"
	"github.com/neuroclass/neuroclass-hub/internal/infrastructure/scheduler"
	"github.com/neuroclass/neuroclass-hub/internal/infrastructure/scheduler/jobs"
	httpiface "github.com/neuroclass/neuroclass-hub/internal/interface/http"
	"github.com/neuroclass/neuroclass-hub/internal/interface/ws"
	"github.com/neuroclass/neuroclass-hub/pkg/logger"
	"github.com/neuroclass/neuroclass-hub/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Default().Fatal("failed to load config", logger.Err(err))
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})
	log.Info("starting",
		logger.String("app", cfg.App.Name),
		logger.String("version", cfg.App.Version),
		logger.String("environment", string(cfg.App.Environment)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// Persistence
	// ─────────────────────────────────────────────────────────────────────────
	var (
		repo   lesson.Repository
		pgConn *postgres.Connection
	)
	if cfg.Database.InMemory {
		log.Warn("using in-memory repository, data will not survive restarts")
		repo = memory.NewLessonRepository()
	} else {
		err = retry.DatabaseRetrier().Do(ctx, func(ctx context.Context) error {
			var connErr error
			pgConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
			return connErr
		})
		if err != nil {
			log.Fatal("failed to connect to postgres", logger.Err(err))
		}
		defer pgConn.Close()

		if cfg.Database.Migrate {
			if err := postgres.NewMigrator(pgConn).Migrate(ctx); err != nil {
				log.Fatal("migrations failed", logger.Err(err))
			}
			log.Info("migrations applied")
		}
		repo = postgres.NewLessonRepository(pgConn)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (optional: dashboard cache + board presence)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		dashboardCache query.DashboardCache
		presence       ws.Presence
	)
	if !cfg.Redis.Disabled {
		var redisClient *goredis.Client
		err = retry.RedisRetrier().Do(ctx, func(ctx context.Context) error {
			var connErr error
			redisClient, connErr = redisinfra.NewClient(ctx, redisinfra.Config{
				Host:         cfg.Redis.Host,
				Port:         cfg.Redis.Port,
				Password:     cfg.Redis.Password,
				DB:           cfg.Redis.DB,
				PoolSize:     cfg.Redis.PoolSize,
				MinIdleConns: cfg.Redis.MinIdleConns,
				DialTimeout:  cfg.Redis.DialTimeout,
				ReadTimeout:  cfg.Redis.ReadTimeout,
				WriteTimeout: cfg.Redis.WriteTimeout,
			})
			return connErr
		})
		if err != nil {
			log.Warn("redis unavailable, continuing without cache and presence", logger.Err(err))
		} else {
			defer redisClient.Close()
			dashboardCache = redisinfra.NewDashboardCache(redisClient)
			presence = redisinfra.NewBoardPresence(redisClient)
			log.Info("redis connected", logger.String("addr", cfg.Redis.Host))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Event bus and subscribers
	// ─────────────────────────────────────────────────────────────────────────
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 8,
		Logger:         log,
	})
	defer bus.Close()

	onFinished := eventhandler.NewOnBlockFinished(dashboardCache, log)
	if err := bus.Subscribe(shared.EventBlockFinished, onFinished.Handle); err != nil {
		log.Fatal("failed to subscribe block finished handler", logger.Err(err))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Board relay
	// ─────────────────────────────────────────────────────────────────────────
	hub := ws.New(ws.Config{HistoryLimit: cfg.Board.HistoryLimit}, presence, log)

	sched := scheduler.New(log)
	if cfg.Board.SweepEnabled {
		sweep := &jobs.SweepIdleBoards{Hub: hub, MaxIdle: cfg.Board.MaxIdle}
		if err := sched.Register(sweep, cfg.Board.SweepInterval); err != nil {
			log.Fatal("failed to register sweep job", logger.Err(err))
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Application handlers
	// ─────────────────────────────────────────────────────────────────────────
	finishConfig := command.FinishBlockConfig{ReferenceSeconds: cfg.Scoring.ReferenceSeconds}

	deps := httpiface.Dependencies{
		RegisterStudent: command.NewRegisterStudentHandler(repo),
		SaveProfile:     command.NewSaveProfileHandler(repo),
		StartBlock:      command.NewStartBlockHandler(repo, bus),
		RecordEvent:     command.NewRecordEventHandler(repo, bus),
		FinishBlock:     command.NewFinishBlockHandler(repo, bus, finishConfig),
		GetDashboard:    query.NewGetDashboardHandler(repo, dashboardCache),
		BoardRelay:      hub,
		Logger:          log,
	}
	if pgConn != nil {
		deps.Database = pgConn
	}

	server := httpiface.NewServer(httpiface.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:     1 << 20,
		EnableCORS:         cfg.HTTP.EnableCORS,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
	}, deps)

	errCh := server.StartAsync()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", logger.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Err(err))
	}
	log.Info("stopped")
}
