// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/countsync/internal/adapters/db"
	redis_a "github.com/ammerola/countsync/internal/adapters/redis_adapter"
	"github.com/ammerola/countsync/internal/adapters/storage"
	"github.com/ammerola/countsync/internal/core/ports"
	"github.com/ammerola/countsync/internal/pkg/config"
	"github.com/ammerola/countsync/internal/pkg/logger"
	"github.com/ammerola/countsync/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	secrets, err := config.NewSecretsManager(ctx, cfg, slogger)
	if err == nil {
		err = config.ApplySecrets(ctx, cfg, secrets)
	}
	if err != nil {
		slogger.Error("failed to load secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	database, err := initDatabase(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddress(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	evidence, err := initEvidenceStore(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize evidence store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	countRepo := db.NewCountRepository(database, slogger)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:         cfg.Asynq.Concurrency,
		Queues:              cfg.Asynq.Queues,
		StrictPriority:      cfg.Asynq.StrictPriority,
		ErrorHandler:        asynq.ErrorHandlerFunc(handleError),
		RetryDelayFunc:      exponentialBackoff,
		ShutdownTimeout:     cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc:     healthCheck,
		HealthCheckInterval: cfg.Asynq.HealthCheckInterval,
		Logger:              newAsynqLogger(slogger),
	})

	mux := asynq.NewServeMux()

	analytics := workers.NewAnalyticsProcessor(cache, slogger)
	mux.HandleFunc(workers.TypeCountRecorded, analytics.HandleCountRecorded)

	notifications := workers.NewNotificationProcessor(cfg.Notifications, cache, slogger)
	mux.HandleFunc(workers.TypeCountConflict, notifications.HandleCountConflict)

	cleanup := workers.NewCleanupProcessor(countRepo, evidence, cfg.Counts.EvidenceRetention, slogger)
	mux.HandleFunc(workers.TypeEvidenceCleanup, cleanup.CleanupEvidence)

	reports := workers.NewReportProcessor(countRepo, evidence, cfg.Counts.ExportMaxRows, slogger)
	mux.HandleFunc(workers.TypeVarianceReport, reports.HandleVarianceReport)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   newAsynqLogger(slogger),
	})
	if err := registerPeriodicTasks(scheduler, cfg.Asynq, slogger); err != nil {
		slogger.Error("failed to register periodic tasks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(mux); err != nil {
			return fmt.Errorf("failed to run worker server: %w", err)
		}
		<-gctx.Done()
		srv.Shutdown()
		return nil
	})

	g.Go(func() error {
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to run scheduler: %w", err)
		}
		<-gctx.Done()
		scheduler.Shutdown()
		return nil
	})

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	if err := g.Wait(); err != nil {
		slogger.Error("worker stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slogger.Info("worker shutdown complete")
}

func registerPeriodicTasks(scheduler *asynq.Scheduler, cfg config.AsynqConfig, logger *slog.Logger) error {
	periodic := []struct {
		cron string
		task *asynq.Task
		opts []asynq.Option
	}{
		{cfg.VarianceReportCron, workers.NewScheduledVarianceReportTask(), []asynq.Option{asynq.Queue("low"), asynq.Timeout(10 * time.Minute)}},
		{cfg.EvidenceCleanupCron, workers.NewEvidenceCleanupTask(), []asynq.Option{asynq.Queue("low"), asynq.MaxRetry(1)}},
	}

	for _, p := range periodic {
		if p.cron == "" {
			continue
		}
		id, err := scheduler.Register(p.cron, p.task, p.opts...)
		if err != nil {
			return fmt.Errorf("failed to register %s: %w", p.task.Type(), err)
		}
		logger.Info("periodic task registered",
			slog.String("type", p.task.Type()),
			slog.String("cron", p.cron),
			slog.String("entry_id", id))
	}
	return nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	return db.NewDatabase(ctx, dbConfig, logger)
}

func initEvidenceStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.EvidenceStore, error) {
	if cfg.Counts.EvidenceLocalDir != "" {
		return storage.NewLocalStorage(cfg.Counts.EvidenceLocalDir, logger)
	}
	return storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, logger)
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.Int("retried", retried),
		slog.Int("max_retry", maxRetry),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, _ error, _ *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	if n > 20 {
		return maxDelay
	}
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
