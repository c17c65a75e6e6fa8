package middleware

import (
	"strconv"
	"time"

	"shopcart/internal/metrics"

	"github.com/labstack/echo/v4"
)

// ルート（/cart/add/:product_id など）単位でリクエスト数と時間を記録
func Metrics(m *metrics.ServerMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			status := c.Response().Status
			m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
			return err
		}
	}
}
