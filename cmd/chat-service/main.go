package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sbc2026/companion/internal/assistant"
	"github.com/sbc2026/companion/internal/pkg/config"
	"github.com/sbc2026/companion/internal/pkg/health"
	"github.com/sbc2026/companion/internal/pkg/logging"
	"github.com/sbc2026/companion/internal/server"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("Chat service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := configPathFlag()

	slog.Info("Loading config", "path", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := logging.SetupLogger(&cfg.Logging, "chat-service"); err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	}

	if baseURL := os.Getenv("BACKEND_BASE_URL"); baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url must be specified in config or BACKEND_BASE_URL env")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(ctx, cancel)

	src := assistant.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	dispatcher := assistant.NewDispatcher(src, slog.Default())

	mux := http.NewServeMux()
	server.New(dispatcher, slog.Default()).Register(mux)
	health.Register(mux, "chat-service")

	addr, err := health.AddrFor(cfg.Chat.Port)
	if err != nil {
		return err
	}
	slog.Info("Chat service starting", "backend", cfg.Backend.BaseURL)
	return health.Run(ctx, addr, "chat-service", mux, cfg.Chat.ReadHeaderTimeout)
}

func configPathFlag() string {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	configPath := flag.String("config", defaultConfig, "Path to config file")
	flag.Parse()
	return *configPath
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
		}
	}()
}
