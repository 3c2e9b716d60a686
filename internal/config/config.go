package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/i474232898/openweather-sdk/internal/weather"
)

type AppConfig struct {
	// OpenWeatherAPIKey is the default credential used when a request
	// does not carry its own.
	OpenWeatherAPIKey string
	OpenWeatherURL    string
	Units             string
	Lang              string

	HTTPTimeout     time.Duration
	FetchMaxRetries int

	// Cache settings applied to every client.
	CacheCapacity int
	CacheTTL      time.Duration

	DefaultMode weather.Mode

	// PollInterval enables the background refresher for polling clients
	// (0 = disabled).
	PollInterval time.Duration

	Port     string
	LogLevel zerolog.Level
}

// Load reads configuration from a .env file (if any) and the environment,
// with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather")
	cfg.Units = os.Getenv("OPENWEATHER_UNITS")
	cfg.Lang = os.Getenv("OPENWEATHER_LANG")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	cfg.FetchMaxRetries = getenvInt("FETCH_MAX_RETRIES", 0)
	if cfg.FetchMaxRetries < 0 {
		return nil, fmt.Errorf("invalid FETCH_MAX_RETRIES: must not be negative")
	}

	cfg.CacheCapacity = getenvInt("CACHE_CAPACITY", 10)
	if cfg.CacheCapacity <= 0 {
		return nil, fmt.Errorf("invalid CACHE_CAPACITY: must be positive")
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "10m"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("invalid CACHE_TTL: must be positive")
	}

	mode, err := weather.ParseMode(getenvDefault("DEFAULT_MODE", string(weather.ModeOnDemand)))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_MODE: %w", err)
	}
	cfg.DefaultMode = mode

	if cfg.PollInterval, err = getenvDuration("POLL_INTERVAL", "0s"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	level, err := zerolog.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
