package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"jobRadar/internal/api"
	"jobRadar/internal/auth"
	"jobRadar/internal/catalog"
	"jobRadar/internal/config"
	"jobRadar/internal/database"
	"jobRadar/internal/matching"
	"jobRadar/internal/notify"
)

func main() {
	cfg := config.MustLoad()
	log.Printf("api bootstrapped with db host=%s port=%d db=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Printf("database connection ready")

	if err := db.AutoMigrate(
		&database.User{},
		&database.SearchProfile{},
		&database.MatchedJobPost{},
		&database.Subscription{},
	); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	log.Printf("database migrated")

	authService, err := auth.NewAuthServiceFromConfig(cfg.Auth)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	catalogClient := catalog.NewClient(cfg.Catalog)
	guard := matching.NewGuard(db)
	orchestrator := matching.NewOrchestrator(db, catalogClient, guard, logger, cfg.Matching.Concurrency)
	gate := notify.NewGate(db, notify.NewRedisPublisher(redisClient), logger)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	log.Printf("api listening on %s", address)

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, db, orchestrator, gate, authService, redisClient, logger, cfg.Matching.RefreshDailyCap)

	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
