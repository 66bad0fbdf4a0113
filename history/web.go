package history

import (
	"time"

	"github.com/evkuzin/climescope/prediction"
	"github.com/evkuzin/climescope/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

const maxSamplesWindow = 14 * 24 * time.Hour

// ForecastSource is the read side of the prediction state.
type ForecastSource interface {
	Snapshot() (prediction.Forecast, bool)
}

// NewWebApp builds the history web application: a chart page and a small
// JSON API over stored samples and the current prediction.
func NewWebApp(store storage.Adapter, state ForecastSource, window time.Duration, logger *logrus.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "climescope-history",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
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
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "climescope"})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		samples := store.GetEvents(window)
		forecasts := store.GetForecasts(window)
		c.Type("html", "utf-8")
		if err := createGraph(c.Response().BodyWriter(), samples, forecasts, window); err != nil {
			logger.Infof("Unable to render graph. %v", err.Error())
			return fiber.NewError(fiber.StatusInternalServerError, "cannot render graph")
		}
		logger.Debugf("build graph based on %d samples from last %s", len(samples), window)
		return nil
	})

	v1 := app.Group("/api/v1")

	v1.Get("/prediction", func(c *fiber.Ctx) error {
		forecast, available := state.Snapshot()
		resp := fiber.Map{"available": available}
		if available {
			resp["forecast"] = forecast
		}
		return c.JSON(resp)
	})

	v1.Get("/samples", func(c *fiber.Ctx) error {
		since := window
		if raw := c.Query("since"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "since must be a positive duration such as 1h")
			}
			since = d
		}
		if since > maxSamplesWindow {
			since = maxSamplesWindow
		}
		samples := store.GetEvents(since)
		if samples == nil {
			samples = []storage.Sample{}
		}
		return c.JSON(fiber.Map{"since": since.String(), "samples": samples})
	})

	return app
}
