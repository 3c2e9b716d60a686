package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/openweather-sdk/internal/weather"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "API_KEY")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "API_KEY", cfg.OpenWeatherAPIKey)
	assert.Equal(t, 10, cfg.CacheCapacity)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 0, cfg.FetchMaxRetries)
	assert.Equal(t, weather.ModeOnDemand, cfg.DefaultMode)
	assert.Equal(t, time.Duration(0), cfg.PollInterval)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DEFAULT_MODE", "polling")
	t.Setenv("POLL_INTERVAL", "2m")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, weather.ModePolling, cfg.DefaultMode)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	for key, val := range map[string]string{
		"CACHE_TTL":      "soon",
		"DEFAULT_MODE":   "push",
		"HTTP_TIMEOUT":   "-",
		"CACHE_CAPACITY": "0",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
