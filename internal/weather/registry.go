package weather

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/i474232898/openweather-sdk/internal/metrics"
)

// Registry keeps exactly one Client per credential. Acquire and Release are
// atomic with respect to each other.
type Registry struct {
	fetcher  Fetcher
	newStore StoreFactory
	logger   zerolog.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry. newStore builds the cache for each
// new client and must not be nil.
func NewRegistry(fetcher Fetcher, newStore StoreFactory, logger zerolog.Logger) *Registry {
	return &Registry{
		fetcher:  fetcher,
		newStore: newStore,
		logger:   logger,
		clients:  make(map[string]*Client),
	}
}

// Acquire returns the client for credential, creating it with an empty cache
// on first use. An existing client has its mode switched to mode and keeps
// its cache.
func (r *Registry) Acquire(credential string, mode Mode) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[credential]; ok {
		if c.Mode() != mode {
			c.SetMode(mode)
			c.logger.Info().Str("mode", mode.String()).Msg("Client mode changed.")
		}
		return c
	}

	c := NewClient(credential, mode, r.fetcher, r.newStore(), r.logger)
	r.clients[credential] = c
	metrics.ClientInstances.Inc()
	c.logger.Info().Str("mode", mode.String()).Msg("Client created.")
	return c
}

// Release drops the client for credential and its cache. The next Acquire
// for the same credential creates a new client.
func (r *Registry) Release(credential string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[credential]
	if !ok {
		return
	}
	delete(r.clients, credential)
	metrics.ClientInstances.Dec()
	c.logger.Info().Msg("Client released.")
}

// GetWeather resolves the client for credential and looks up location.
func (r *Registry) GetWeather(ctx context.Context, credential string, mode Mode, location string) (Record, error) {
	return r.Acquire(credential, mode).Get(ctx, location)
}

// Clients returns the live clients ordered by credential.
func (r *Registry) Clients() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].credential < out[j].credential })
	return out
}

// Len returns the number of live clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
