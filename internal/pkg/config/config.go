package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Chat     ChatConfig     `yaml:"chat"`
	Data     DataConfig     `yaml:"data"`
	Telegram TelegramConfig `yaml:"telegram"`
	Postgres PostgresConfig `yaml:"postgres"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BackendConfig points the assistant at the betting data API.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ChatConfig configures the HTTP chat service.
type ChatConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

// TelegramConfig configures the Telegram bot front-end. Token is usually
// supplied via the TELEGRAM_BOT_TOKEN env var instead of the config file.
type TelegramConfig struct {
	Token          string  `yaml:"token"`
	UpdateTimeout  int     `yaml:"update_timeout"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
}

// DataConfig configures the betting data API service.
type DataConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

// PostgresConfig configures the data API storage.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig configures slog output. When File is set, logs are also
// written there as JSON for offline diagnostics.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Chat.Port <= 0 {
		cfg.Chat.Port = 8080
	}
	if cfg.Chat.ReadHeaderTimeout <= 0 {
		cfg.Chat.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.Data.Port <= 0 {
		cfg.Data.Port = 8090
	}
	if cfg.Data.ReadHeaderTimeout <= 0 {
		cfg.Data.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.Telegram.UpdateTimeout <= 0 {
		cfg.Telegram.UpdateTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
