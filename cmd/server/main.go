package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/app"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/config"
)

func main() {
	logger := log.New(os.Stdout, "server ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// A local .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to build app: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		logger.Fatalf("service exited with error: %v", err)
	}
}
