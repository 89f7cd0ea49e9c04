package middleware

import (
	"strconv"
	"time"

	"go-priceledger/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records a counter and latency histogram per request
func Metrics(serviceName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		statusLabel := strconv.Itoa(status)

		metrics.RequestCounter.
			WithLabelValues(serviceName, c.Method(), path, statusLabel).Inc()
		metrics.RequestDurationHistogram.
			WithLabelValues(serviceName, c.Method(), path, statusLabel).
			Observe(time.Since(start).Seconds())

		return err
	}
}
