package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"jobRadar/internal/catalog"
	"jobRadar/internal/config"
	"jobRadar/internal/database"
	"jobRadar/internal/matching"
	"jobRadar/internal/metrics"
	"jobRadar/internal/notify"
	"jobRadar/internal/tasks"
	"jobRadar/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	asynqClient := asynq.NewClient(redisOpt)
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	catalogClient := catalog.NewClient(cfg.Catalog)
	guard := matching.NewGuard(db)
	orchestrator := matching.NewOrchestrator(db, catalogClient, guard, logger, cfg.Matching.Concurrency)
	gate := notify.NewGate(db, notify.NewRedisPublisher(redisClient), logger)
	matchHandler := worker.NewMatchTaskHandler(orchestrator, gate, logger)

	if cfg.Poller.Enabled {
		poller := worker.NewPoller(catalogClient, redisClient, asynqClient, logger, cfg.Poller.Spec)
		if err := poller.Start(context.Background()); err != nil {
			log.Fatalf("start catalog poller: %v", err)
		}
		defer poller.Stop()
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
	})

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypePostingPublished, matchHandler)

	logger.Info("worker service started", slog.String("redis_addr", redisAddr))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
