package weather

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromStatus(t *testing.T) {
	cases := map[int]ErrorKind{
		400: KindBadRequest,
		401: KindUnauthorized,
		404: KindNotFound,
		429: KindRateLimited,
		500: KindServerError,
		503: KindServerError,
		418: KindServerError,
	}
	for status, want := range cases {
		assert.Equal(t, want, KindFromStatus(status), "status %d", status)
	}
}

func TestFetchError_IsAndAs(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewFetchError(404, "city not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrServerError)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "not_found (status 404): city not found", errors.Unwrap(err).Error())

	cause := errors.New("dial tcp: timeout")
	terr := NewTransportError(cause)
	assert.ErrorIs(t, terr, ErrTransportFailure)
	assert.ErrorIs(t, terr, cause)
	assert.Equal(t, "transport_failure: dial tcp: timeout", terr.Error())

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"on_demand": ModeOnDemand,
		"ON-DEMAND": ModeOnDemand,
		"polling":   ModePolling,
		" Polling ": ModePolling,
	} {
		got, err := ParseMode(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("push")
	assert.Error(t, err)
}

func TestRecord_JSON(t *testing.T) {
	r := Record{
		Weather:     Condition{Main: "Clouds", Description: "overcast clouds"},
		Temperature: Temperature{Temp: 267.43, FeelsLike: 264.26},
		Visibility:  1191,
		Name:        "Kazan",
	}
	assert.Contains(t, r.String(), `"weather":{"main":"Clouds","description":"overcast clouds"}`)
	assert.Contains(t, r.String(), `"feels_like":264.26`)
	assert.Equal(t, int64(0), r.ObservedAt().Unix())
}
