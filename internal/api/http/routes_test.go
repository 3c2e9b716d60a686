package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/openweather-sdk/internal/store"
	"github.com/i474232898/openweather-sdk/internal/weather"
)

func newTestApp(t *testing.T, fetch weather.FetcherFunc, defaultKey string) (*fiber.App, *weather.Registry) {
	t.Helper()
	app := fiber.New()
	registry := weather.NewRegistry(fetch, store.Factory(store.DefaultCapacity, store.DefaultTTL), zerolog.Nop())
	RegisterRoutes(app, registry, weather.ModeOnDemand, defaultKey)
	return app, registry
}

func TestWeatherEndpoint(t *testing.T) {
	var calls atomic.Int32
	app, registry := newTestApp(t, func(ctx context.Context, location, credential string) (weather.Record, error) {
		calls.Add(1)
		assert.Equal(t, "API_KEY", credential)
		return weather.Record{Name: location, Weather: weather.Condition{Main: "Clouds"}}, nil
	}, "")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/weather?city=Kazan", nil)
		req.Header.Set("X-API-Key", "API_KEY")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var rec weather.Record
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
		assert.Equal(t, "Kazan", rec.Name)
		assert.Equal(t, "Clouds", rec.Weather.Main)
	}
	assert.Equal(t, int32(1), calls.Load(), "second request is served from the cache")

	// appid query selects the same client; mode switches in place
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather?city=Kazan&mode=polling&appid=API_KEY", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, weather.ModePolling, registry.Acquire("API_KEY", weather.ModePolling).Mode())
	assert.Equal(t, 1, registry.Len())
}

func TestWeatherEndpointValidation(t *testing.T) {
	app, _ := newTestApp(t, func(ctx context.Context, location, credential string) (weather.Record, error) {
		t.Error("fetcher must not be called")
		return weather.Record{}, nil
	}, "")

	for _, target := range []string{
		"/api/v1/weather?appid=API_KEY",                     // missing city
		"/api/v1/weather?city=Kazan",                        // missing key
		"/api/v1/weather?city=Kazan&appid=API_KEY&mode=push", // bad mode
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
}

func TestWeatherEndpointErrorMapping(t *testing.T) {
	cases := map[error]int{
		weather.NewFetchError(400, "Nothing to geocode"): http.StatusBadRequest,
		weather.NewFetchError(401, "Invalid API key"):    http.StatusUnauthorized,
		weather.NewFetchError(404, "city not found"):     http.StatusNotFound,
		weather.NewFetchError(429, "limit exceeded"):     http.StatusTooManyRequests,
		weather.NewFetchError(500, "oops"):               http.StatusBadGateway,
		weather.NewTransportError(errors.New("reset")):   http.StatusServiceUnavailable,
		errors.New("unclassified"):                       http.StatusInternalServerError,
	}

	for fetchErr, want := range cases {
		fetchErr := fetchErr
		app, _ := newTestApp(t, func(ctx context.Context, location, credential string) (weather.Record, error) {
			return weather.Record{}, fetchErr
		}, "DEFAULT_KEY")

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather?city=Atlantis", nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, fetchErr.Error())
	}
}

func TestReleaseEndpoint(t *testing.T) {
	app, registry := newTestApp(t, func(ctx context.Context, location, credential string) (weather.Record, error) {
		return weather.Record{Name: location}, nil
	}, "")

	before := registry.Acquire("API_KEY", weather.ModeOnDemand)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/clients", nil)
	req.Header.Set("X-API-Key", "API_KEY")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, registry.Len())
	assert.NotEqual(t, before.ID(), registry.Acquire("API_KEY", weather.ModeOnDemand).ID())

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/clients", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWeatherEndpointModeSpellings(t *testing.T) {
	app, registry := newTestApp(t, func(ctx context.Context, location, credential string) (weather.Record, error) {
		return weather.Record{Name: location}, nil
	}, "API_KEY")

	for target, want := range map[string]weather.Mode{
		"/api/v1/weather?city=Kazan&mode=POLLING":   weather.ModePolling,
		"/api/v1/weather?city=Kazan&mode=on-demand": weather.ModeOnDemand,
		"/api/v1/weather?city=Kazan&mode=Polling":   weather.ModePolling,
		"/api/v1/weather?city=Kazan":                weather.ModeOnDemand,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, target)

		clients := registry.Clients()
		require.Len(t, clients, 1)
		assert.Equal(t, want, clients[0].Mode(), target)
	}
}

func TestWeatherEndpointHidesTransportDetails(t *testing.T) {
	app, _ := newTestApp(t, func(ctx context.Context, location, credential string) (weather.Record, error) {
		return weather.Record{}, weather.NewTransportError(errors.New(`Get "http://api/weather?appid=` + credential + `": connection refused`))
	}, "SERVER_SECRET_KEY")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather?city=Kazan", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "SERVER_SECRET_KEY")
	assert.Contains(t, string(body), "weather provider unavailable")
}
