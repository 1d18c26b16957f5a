package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"steamlens/internal/api"
	"steamlens/internal/config"
	"steamlens/internal/db"
	"steamlens/internal/library"
	"steamlens/internal/logging"
	"steamlens/internal/monitor"
	"steamlens/internal/narrative"
	"steamlens/internal/steam"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "steamlens: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	manager, err := config.NewManager(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := manager.Current()

	logger, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logger.Sync()

	database, err := db.NewDatabase(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := database.Initialize(); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}

	metrics := monitor.NewMetrics()
	cacheRepo := db.NewCacheRepository(database)
	steamClient := steam.NewClient(cfg.SteamAPIKey, logger)
	librarySvc := library.NewService(steamClient, cacheRepo, cfg.CacheTTL(), metrics, logger)
	generator := narrative.NewGenerator(narrative.Config{
		APIKey:   cfg.OpenAIAPIKey,
		BaseURL:  cfg.OpenAIBaseURL,
		Model:    cfg.Model,
		MaxGames: cfg.PromptMaxGames,
		Timeout:  cfg.StreamTimeout(),
	}, logger)

	server := api.NewServer(cfg, librarySvc, steamClient, generator, database, metrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager.SetOnChange(func(updated *config.Config) {
		librarySvc.SetTTL(updated.CacheTTL())
		generator.Reconfigure(updated.Model, updated.PromptMaxGames, updated.StreamTimeout())
		logger.Info("configuration reloaded",
			zap.Int("cache_ttl_hours", updated.CacheTTLHours),
			zap.String("model", updated.Model),
			zap.Int("prompt_max_games", updated.PromptMaxGames))
	})
	if err := manager.Watch(ctx, func(err error) {
		logger.Warn("config watch error", zap.Error(err))
	}); err != nil {
		logger.Warn("config hot reload disabled", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	logger.Info("steamlens started",
		zap.String("addr", cfg.ListenAddr),
		zap.String("model", cfg.Model))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	manager.StopWatch()
	if err := server.Stop(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	return nil
}
