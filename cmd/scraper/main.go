package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/keyword-image-harvester/internal/app"
	"github.com/samvad-hq/keyword-image-harvester/internal/config"
	"github.com/samvad-hq/keyword-image-harvester/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scraper failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("scraper starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scraper, err := app.NewScraper(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize scraper", "error", err.Error())
		return err
	}

	if _, err := scraper.Run(ctx); err != nil {
		logger.ErrorObj("scraper run failed", "error", err.Error())
		return fmt.Errorf("scraper run: %w", err)
	}

	return nil
}
