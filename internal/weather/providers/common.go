package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/openweather-sdk/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour. MaxRetries of zero
// sends each request exactly once.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// doRequestWithResilience executes the HTTP request through the circuit
// breaker, retrying transport failures and 5xx responses with exponential
// backoff. Client errors (4xx) are returned as a response for the caller to
// classify and do not count against the breaker.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || (cfg.Backoff.MaxRetries > 0 && cfg.Backoff.InitialInterval <= 0) {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, weather.NewTransportError(ctx.Err())
		}

		req, err := buildRequest()
		if err != nil {
			return nil, weather.NewTransportError(err)
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, weather.NewTransportError(redactCredential(execErr))
			}

			if resp.StatusCode >= 500 {
				defer resp.Body.Close()
				return nil, weather.NewFetchError(resp.StatusCode, readErrorMessage(resp))
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, weather.NewTransportError(fmt.Errorf("unexpected result type from circuit breaker"))
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, weather.NewTransportError(fmt.Errorf("%w: %v", errCircuitOpen, err))
		}

		if attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		// Backoff with exponential delay.
		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, weather.NewTransportError(ctx.Err())
		case <-timer.C:
			// continue to next attempt
		}

		attempt++
	}
}

// credentialParam is the query parameter carrying the API key.
const credentialParam = "appid"

// redactCredential strips the API key from the request URL that net/http
// embeds in transport errors.
func redactCredential(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}

	redacted := &url.Error{Op: urlErr.Op, Err: urlErr.Err}
	if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
		q := u.Query()
		q.Del(credentialParam)
		u.RawQuery = q.Encode()
		redacted.URL = u.String()
	}
	return redacted
}

// readErrorMessage extracts the "message" field OpenWeather puts in error
// bodies, falling back to the status text.
func readErrorMessage(resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && json.Unmarshal(data, &body) == nil && body.Message != "" {
		return body.Message
	}
	return http.StatusText(resp.StatusCode)
}
