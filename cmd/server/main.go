package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leetscore/internal/api"
	"leetscore/internal/api/handlers"
	"leetscore/internal/config"
	"leetscore/internal/jobs"
	"leetscore/internal/logger"
	"leetscore/internal/models"
	"leetscore/internal/repository"
	"leetscore/internal/service"
	"leetscore/internal/upstream"
	"leetscore/internal/websocket"
	"leetscore/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.SetDebug(cfg.Debug)

	client := upstream.NewClient(cfg.Upstream)
	resolver := service.NewResolver(client)
	scheduler := service.NewScheduler(cfg.Batch, resolver.Attempt)

	// Batch-run audit is optional
	var (
		auditRepo *repository.PostgresRepository
		auditPool *worker.Pool
		audit     handlers.AuditSink
	)
	if cfg.AuditEnabled() {
		auditRepo, auditPool = initAudit(cfg)
		if auditPool != nil {
			audit = auditPool
		}
	}

	// Shared rate-limit counters are optional too
	var storage fiber.Storage
	var redisStorage *repository.RedisStorage
	if cfg.Redis.Host != "" {
		redisStorage, err = initRedis(cfg)
		if err != nil {
			logger.Warning("Redis unavailable, rate limiting in memory: %v", err)
		} else {
			storage = redisStorage
			logger.Success("Connected to Redis at %s", cfg.GetRedisAddr())
		}
	}

	probe := jobs.NewUpstreamProbe(client, cfg.Probe.Interval)
	if cfg.Probe.Interval > 0 {
		if err := probe.Start(); err != nil {
			logger.Warning("Failed to start upstream probe: %v", err)
		}
	}

	stream := websocket.NewStream(scheduler, func(result *models.BatchResult, took time.Duration) {
		if audit != nil {
			audit.Submit(models.NewBatchRun("ws", result, took))
		}
	})

	app := api.NewApp(api.Options{
		CORS:       cfg.CORS,
		RateLimit:  cfg.RateLimit,
		Storage:    storage,
		RequestLog: true,
		Scores: handlers.NewScoreHandler(handlers.Deps{
			Users:   resolver,
			Batches: scheduler,
			Stats:   client,
			Audit:   audit,
			Probe:   probe,
		}),
		Stream: stream,
	})

	cleanup := func() {
		if err := probe.Stop(); err != nil {
			logger.Warning("Probe shutdown error: %v", err)
		}
		if auditPool != nil {
			logger.Info("Flushing audit pool...")
			if err := auditPool.Shutdown(30 * time.Second); err != nil {
				logger.Warning("Audit pool shutdown error: %v", err)
			}
		}
		if auditRepo != nil {
			if err := auditRepo.Close(); err != nil {
				logger.Error("Error closing PostgreSQL: %v", err)
			}
		}
		if redisStorage != nil {
			if err := redisStorage.Close(); err != nil {
				logger.Error("Error closing Redis: %v", err)
			}
		}
	}

	port := cfg.Server.Port
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		logger.Error("Failed to start server: %v", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server starting on port %d (upstream %s)", port, cfg.Upstream.Endpoint)
	if err := serve(app, ln, quit, cleanup); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}

// serve runs app on ln until quit fires, then stops HTTP and runs cleanup.
// It returns only once cleanup has finished, so pending audit writes are
// flushed before the process exits.
func serve(app *fiber.App, ln net.Listener, quit <-chan os.Signal, cleanup func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-quit

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			logger.Error("Server forced to shutdown: %v", err)
		}

		cleanup()
		logger.Success("Server shutdown complete")
	}()

	if err := app.Listener(ln); err != nil {
		return err
	}
	<-done
	return nil
}

// initAudit connects to PostgreSQL, migrates and starts the audit pool. A
// database that cannot be reached disables the audit instead of the server.
func initAudit(cfg *config.Config) (*repository.PostgresRepository, *worker.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := repository.OpenPostgres(ctx, cfg.GetDSN(), cfg.Audit.Workers)
	if err != nil {
		logger.Warning("PostgreSQL unavailable, batch audit disabled: %v", err)
		return nil, nil
	}
	repo := repository.NewPostgresRepository(db)

	if err := repo.AutoMigrate(); err != nil {
		logger.Warning("Audit migration failed, batch audit disabled: %v", err)
		repo.Close()
		return nil, nil
	}
	logger.Success("Connected to PostgreSQL, batch audit enabled")

	pool := worker.NewPool(cfg.Audit.Workers, cfg.Audit.QueueSize, repo)
	pool.Start()
	return repo, pool
}

func initRedis(cfg *config.Config) (*repository.RedisStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := repository.OpenRedis(ctx, &redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return repository.NewRedisStorage(client, repository.RateLimitPrefix), nil
}
