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

	"github.com/sbc2026/companion/internal/betdata"
	"github.com/sbc2026/companion/internal/pkg/config"
	"github.com/sbc2026/companion/internal/pkg/health"
	"github.com/sbc2026/companion/internal/pkg/logging"
	"github.com/sbc2026/companion/internal/storage"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("Betting data API failed", "error", err)
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

	if _, err := logging.SetupLogger(&cfg.Logging, "betdata-api"); err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	}

	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Postgres.DSN = dsn
	}

	store, err := storage.NewPostgresStore(&cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(ctx, cancel)

	mux := http.NewServeMux()
	betdata.New(store, slog.Default()).Register(mux)
	health.Register(mux, "betdata-api")

	addr, err := health.AddrFor(cfg.Data.Port)
	if err != nil {
		return err
	}
	return health.Run(ctx, addr, "betdata-api", mux, cfg.Data.ReadHeaderTimeout)
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
