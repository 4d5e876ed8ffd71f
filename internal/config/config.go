package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Supported generation providers.
const (
	ProviderVenice = "venice"
	ProviderOpenAI = "openai"
)

type Config struct {
	Provider       string
	VeniceAPIKey   string
	OpenAIAPIKey   string
	ModelName      string
	ImageModelName string

	RedisAddr string

	// DataDir optionally holds theme definition files that extend the
	// built-in catalog.
	DataDir string

	MaxTurns    int
	Environment string
	LogLevel    slog.Level
}

func Load() (*Config, error) {
	cfg := &Config{
		Provider:       strings.ToLower(getEnv("PROVIDER", ProviderVenice)),
		VeniceAPIKey:   os.Getenv("VENICE_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		ModelName:      os.Getenv("MODEL_NAME"),
		ImageModelName: os.Getenv("IMAGE_MODEL_NAME"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		DataDir:        os.Getenv("DATA_DIR"),
		MaxTurns:       getEnvInt("MAX_TURNS", 0),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
	}

	switch cfg.Provider {
	case ProviderVenice:
		if cfg.VeniceAPIKey == "" {
			return nil, fmt.Errorf("VENICE_API_KEY is required when PROVIDER=venice")
		}
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when PROVIDER=openai")
		}
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
