package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/simonkvalheim/oop-ledger/internal/queue"
	"github.com/simonkvalheim/oop-ledger/internal/report"
)

// worker drains booked records from Redis and appends them to per-account
// CSV statements
func main() {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
	})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisURL, err)
	}

	statements, err := report.NewStatementWriter(cfg.StatementDir)
	if err != nil {
		log.Fatalf("Failed to prepare statement directory: %v", err)
	}

	w := queue.NewWorker(client, statements)
	go func() {
		<-ctx.Done()
		log.Println("Shutdown signal received, stopping statement worker")
		w.Stop()
	}()

	log.Printf("Statement worker consuming %s into %s", queue.QueueName, cfg.StatementDir)
	w.Start(ctx)
	log.Println("Statement worker stopped")
}

// Config holds the worker's environment settings
type Config struct {
	RedisURL      string
	RedisPassword string
	StatementDir  string
}

func loadConfig() Config {
	cfg := Config{
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		StatementDir:  os.Getenv("STATEMENT_DIR"),
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.StatementDir == "" {
		cfg.StatementDir = "statements"
	}
	return cfg
}
