package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/openweather-sdk/internal/api/http"
	"github.com/i474232898/openweather-sdk/internal/config"
	"github.com/i474232898/openweather-sdk/internal/scheduler"
	"github.com/i474232898/openweather-sdk/internal/store"
	"github.com/i474232898/openweather-sdk/internal/weather"
	"github.com/i474232898/openweather-sdk/internal/weather/providers"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "openweather-sdk").Logger()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config.")
	}
	log = log.Level(cfg.LogLevel)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
		BaseURL: cfg.OpenWeatherURL,
		Units:   cfg.Units,
		Lang:    cfg.Lang,
		Backoff: providers.BackoffConfig{
			MaxRetries:      cfg.FetchMaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}, log)

	// One client (and one bounded cache) per API key.
	registry := weather.NewRegistry(provider, store.Factory(cfg.CacheCapacity, cfg.CacheTTL), log)

	// Optional background refresher for polling-mode clients.
	poller := scheduler.New(registry, cfg.PollInterval, 30*time.Second, log)
	if err := poller.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start poller.")
	}
	defer poller.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "openweather-sdk",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "openweather-sdk",
			"clients": registry.Len(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, registry, cfg.DefaultMode, cfg.OpenWeatherAPIKey)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("HTTP server starting.")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("Fiber server stopped.")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown.")
	}
}
