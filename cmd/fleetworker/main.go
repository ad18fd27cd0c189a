package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/arjun1665/SmartFleet/internal/config"
	"github.com/arjun1665/SmartFleet/internal/tasks"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

func main() {
	cfg := config.Load()
	logger := structlog.New("fleetworker", structlog.ParseLevel(cfg.LogLevel), os.Stdout)

	if cfg.RedisAddr == "" {
		logger.Error("REDIS_ADDR is required for the worker", nil)
		os.Exit(1)
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := tasks.NewWorker(rdb, tasks.LogNotifier{Logger: logger}, logger)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", structlog.Fields{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("worker stopped", nil)
}
