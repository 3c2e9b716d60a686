package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/openweather-sdk/internal/metrics"
)

// Client serves weather lookups for a single credential from its own bounded
// cache. The refresh strategy is chosen by the client's Mode, which may be
// changed at any time without losing cached entries.
type Client struct {
	id         uuid.UUID
	credential string
	fetcher    Fetcher
	store      Store
	logger     zerolog.Logger

	mu   sync.RWMutex
	mode Mode

	// one in-flight fetch per location
	inflight singleflight.Group
}

// flightTimeout bounds a shared fetch, since it outlives the callers waiting on it.
const flightTimeout = 2 * time.Minute

// SweepResult summarizes a polling sweep.
type SweepResult struct {
	Refreshed int
	Failed    int
}

// NewClient creates a client with an empty store.
func NewClient(credential string, mode Mode, fetcher Fetcher, store Store, logger zerolog.Logger) *Client {
	id := uuid.New()
	return &Client{
		id:         id,
		credential: credential,
		fetcher:    fetcher,
		store:      store,
		mode:       mode,
		logger: logger.With().
			Str("component", "WeatherClient").
			Str("client_id", id.String()).
			Logger(),
	}
}

// ID uniquely identifies this client instance.
func (c *Client) ID() uuid.UUID { return c.id }

func (c *Client) Credential() string { return c.credential }

func (c *Client) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

func (c *Client) SetMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

// Len returns the number of cached locations.
func (c *Client) Len() int { return c.store.Len() }

// Cached returns the cached entry for location without fetching.
func (c *Client) Cached(location string) (Entry, bool) {
	return c.store.Get(location)
}

// Get returns the current weather for location according to the client's mode.
// Fetch failures for location are returned unchanged and never leave a
// partially written entry behind.
func (c *Client) Get(ctx context.Context, location string) (Record, error) {
	if c.Mode() == ModePolling {
		return c.getPolling(ctx, location)
	}
	return c.getOnDemand(ctx, location)
}

func (c *Client) getOnDemand(ctx context.Context, location string) (Record, error) {
	e, ok := c.store.Get(location)
	switch {
	case !ok:
		metrics.CacheMisses.WithLabelValues(ModeOnDemand.String(), "absent").Inc()
	case c.store.IsFresh(e):
		metrics.CacheHits.WithLabelValues(ModeOnDemand.String()).Inc()
		return e.Value, nil
	default:
		metrics.CacheMisses.WithLabelValues(ModeOnDemand.String(), "expired").Inc()
	}

	// A stale entry is dropped before fetching so a failed fetch leaves the
	// location absent.
	return c.refresh(ctx, location, true)
}

func (c *Client) getPolling(ctx context.Context, location string) (Record, error) {
	var (
		value     Record
		refreshed bool
	)

	e, ok := c.store.Get(location)
	switch {
	case !ok || c.store.IsExpired(e):
		reason := "absent"
		if ok {
			reason = "expired"
		}
		metrics.CacheMisses.WithLabelValues(ModePolling.String(), reason).Inc()

		rec, err := c.refresh(ctx, location, false)
		if err != nil {
			return Record{}, err
		}
		value, refreshed = rec, true
	default:
		metrics.CacheHits.WithLabelValues(ModePolling.String()).Inc()
		value = e.Value
	}

	skip := ""
	if refreshed {
		skip = location
	}
	c.sweep(ctx, skip)

	return value, nil
}

// RefreshExpired refetches every expired entry in the cache. Failed locations
// keep their previous entry and are counted in the result.
func (c *Client) RefreshExpired(ctx context.Context) SweepResult {
	return c.sweep(ctx, "")
}

func (c *Client) sweep(ctx context.Context, skip string) SweepResult {
	var res SweepResult

	for _, key := range c.store.Keys() {
		if key == skip {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		e, ok := c.store.Get(key)
		if !ok || !c.store.IsExpired(e) {
			continue
		}

		if _, err := c.refresh(ctx, key, false); err != nil {
			res.Failed++
			metrics.SweepRefreshes.WithLabelValues("error").Inc()
			c.logger.Warn().Err(err).Str("location", key).Msg("Polling refresh failed; keeping previous entry.")
			continue
		}
		res.Refreshed++
		metrics.SweepRefreshes.WithLabelValues("ok").Inc()
	}

	if res.Refreshed > 0 || res.Failed > 0 {
		c.logger.Debug().Int("refreshed", res.Refreshed).Int("failed", res.Failed).Msg("Polling sweep completed.")
	}
	return res
}

// refresh fetches location and writes it back on success. Concurrent calls
// for the same location share one fetch, which runs detached from the
// callers' cancellation; each caller stops waiting when its own ctx is done.
// When dropStale is set, a stale entry is removed before the fetch.
func (c *Client) refresh(ctx context.Context, location string, dropStale bool) (Record, error) {
	ch := c.inflight.DoChan(location, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()

		// Another caller may have refreshed it while we waited for the group.
		if e, ok := c.store.Get(location); ok && c.store.IsFresh(e) {
			return e.Value, nil
		} else if ok && dropStale {
			c.store.Delete(location)
		}

		c.logger.Debug().Str("location", location).Msg("Fetching weather from provider.")
		rec, err := c.fetcher.Fetch(fetchCtx, location, c.credential)
		if err != nil {
			metrics.Fetches.WithLabelValues(KindOf(err).String()).Inc()
			return nil, err
		}
		metrics.Fetches.WithLabelValues("ok").Inc()

		c.store.Put(location, rec)
		return rec, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Record{}, NewTransportError(ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return Record{}, res.Err
	}

	rec, ok := res.Val.(Record)
	if !ok {
		return Record{}, fmt.Errorf("unexpected result type %T from fetch", res.Val)
	}
	return rec, nil
}
