package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/openweather-sdk/internal/weather"
)

var validate = validator.New()

// credentialHeader carries the OpenWeather API key; the appid query
// parameter is accepted as a fallback, mirroring the upstream API.
const credentialHeader = "X-API-Key"

// RegisterRoutes wires the HTTP handlers into the Fiber app. defaultMode is
// used when a request does not specify one; defaultCredential, when set, is
// used when a request carries no API key.
func RegisterRoutes(app *fiber.App, registry *weather.Registry, defaultMode weather.Mode, defaultCredential string) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		q, err := parseWeatherQuery(c, defaultMode, defaultCredential)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := registry.GetWeather(c.UserContext(), q.APIKey, q.Mode, q.City)
		if err != nil {
			return fetchErrorToHTTP(err)
		}

		return c.JSON(rec)
	})

	v1.Delete("/clients", func(c *fiber.Ctx) error {
		key := credentialFrom(c, defaultCredential)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "api key is required")
		}
		registry.Release(key)
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// weatherQuery holds the parameters of a weather lookup. Mode has already
// been normalised by weather.ParseMode.
type weatherQuery struct {
	City   string       `validate:"required"`
	Mode   weather.Mode `validate:"required"`
	APIKey string       `validate:"required"`
}

func parseWeatherQuery(c *fiber.Ctx, defaultMode weather.Mode, defaultCredential string) (weatherQuery, error) {
	q := weatherQuery{
		City:   c.Query("city"),
		Mode:   defaultMode,
		APIKey: credentialFrom(c, defaultCredential),
	}

	if raw := c.Query("mode"); raw != "" {
		mode, err := weather.ParseMode(raw)
		if err != nil {
			return q, err
		}
		q.Mode = mode
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func credentialFrom(c *fiber.Ctx, def string) string {
	if key := c.Get(credentialHeader); key != "" {
		return key
	}
	if key := c.Query("appid"); key != "" {
		return key
	}
	return def
}

// fetchErrorToHTTP maps a fetch failure to the status returned to the caller.
func fetchErrorToHTTP(err error) error {
	var fe *weather.FetchError
	if !errors.As(err, &fe) {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}

	switch fe.Kind {
	case weather.KindBadRequest:
		return fiber.NewError(fiber.StatusBadRequest, fe.Error())
	case weather.KindUnauthorized:
		return fiber.NewError(fiber.StatusUnauthorized, fe.Error())
	case weather.KindNotFound:
		return fiber.NewError(fiber.StatusNotFound, fe.Error())
	case weather.KindRateLimited:
		return fiber.NewError(fiber.StatusTooManyRequests, fe.Error())
	case weather.KindTransportFailure:
		// The underlying error may describe the outbound request.
		return fiber.NewError(fiber.StatusServiceUnavailable, "weather provider unavailable")
	default:
		return fiber.NewError(fiber.StatusBadGateway, fe.Error())
	}
}
