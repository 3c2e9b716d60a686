package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/openweather-sdk/internal/weather"
)

// Poller periodically refreshes expired entries of every polling-mode client
// in a registry, so that lookups rarely wait on a sweep.
type Poller struct {
	scheduler *gocron.Scheduler
	registry  *weather.Registry
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
}

// New creates a Poller. timeout bounds a single run across all clients.
func New(registry *weather.Registry, interval, timeout time.Duration, logger zerolog.Logger) *Poller {
	s := gocron.NewScheduler(time.UTC)
	return &Poller{
		scheduler: s,
		registry:  registry,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.With().Str("component", "Poller").Logger(),
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
// A non-positive interval leaves the poller disabled.
func (p *Poller) Start() error {
	if p.interval <= 0 {
		p.logger.Info().Msg("Background polling disabled.")
		return nil
	}

	_, err := p.scheduler.Every(p.interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	p.scheduler.StartAsync()
	p.logger.Info().Dur("interval", p.interval).Msg("Background polling started.")
	return nil
}

// RunOnce sweeps every polling-mode client once and returns the combined result.
func (p *Poller) RunOnce(ctx context.Context) weather.SweepResult {
	var total weather.SweepResult

	for _, c := range p.registry.Clients() {
		if c.Mode() != weather.ModePolling {
			continue
		}
		res := c.RefreshExpired(ctx)
		total.Refreshed += res.Refreshed
		total.Failed += res.Failed
	}

	p.logger.Debug().Int("refreshed", total.Refreshed).Int("failed", total.Failed).Msg("Polling run completed.")
	return total
}

// Stop stops the scheduler and cancels any future runs.
func (p *Poller) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}
