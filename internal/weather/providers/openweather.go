package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/openweather-sdk/internal/weather"
)

// DefaultOpenWeatherURL is the current weather endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherConfig configures an OpenWeatherProvider. Empty Units keeps the
// provider default (Kelvin).
type OpenWeatherConfig struct {
	BaseURL string
	Units   string
	Lang    string
	Backoff BackoffConfig
}

// OpenWeatherProvider implements weather.Fetcher for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	baseURL string
	units   string
	lang    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig, logger zerolog.Logger) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	backoff := cfg.Backoff
	if backoff.MaxRetries > 0 && backoff.InitialInterval <= 0 {
		backoff.InitialInterval = 500 * time.Millisecond
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		baseURL: baseURL,
		units:   cfg.Units,
		lang:    cfg.Lang,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: cb,
		logger:  logger.With().Str("component", "OpenWeatherProvider").Logger(),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// openWeatherPayload mirrors the parts of the /weather response we keep.
type openWeatherPayload struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
}

// Fetch retrieves the current weather for location using credential as appid.
// Non-200 responses become *weather.FetchError classified by status.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, location, credential string) (weather.Record, error) {
	if credential == "" {
		return weather.Record{}, &weather.FetchError{Kind: weather.KindUnauthorized, Message: "api key is not configured"}
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", location)
		values.Set("appid", credential)
		if p.units != "" {
			values.Set("units", p.units)
		}
		if p.lang != "" {
			values.Set("lang", p.lang)
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		p.logger.Debug().Err(err).Str("location", location).Msg("OpenWeather request failed.")
		return weather.Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fe := weather.NewFetchError(resp.StatusCode, readErrorMessage(resp))
		p.logger.Debug().Err(fe).Str("location", location).Msg("OpenWeather rejected request.")
		return weather.Record{}, fe
	}

	var payload openWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Record{}, weather.NewTransportError(fmt.Errorf("decode openweather response: %w", err))
	}

	return payload.toRecord(), nil
}

func (p openWeatherPayload) toRecord() weather.Record {
	var cond weather.Condition
	if len(p.Weather) > 0 {
		cond = weather.Condition{
			Main:        p.Weather[0].Main,
			Description: p.Weather[0].Description,
		}
	}

	return weather.Record{
		Weather: cond,
		Temperature: weather.Temperature{
			Temp:      p.Main.Temp,
			FeelsLike: p.Main.FeelsLike,
		},
		Visibility: p.Visibility,
		Wind:       weather.Wind{Speed: p.Wind.Speed},
		Datetime:   p.Dt,
		Sys: weather.Sys{
			Sunrise: p.Sys.Sunrise,
			Sunset:  p.Sys.Sunset,
		},
		Timezone: p.Timezone,
		Name:     p.Name,
	}
}
