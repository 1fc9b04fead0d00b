package middleware

import (
	"time"

	"github.com/annel0/voxel-planets/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Prometheus пишет длительность и число активных запросов в метрики сервера.
// Использование:
//
//	r.Use(middleware.Prometheus(m))
func Prometheus(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.AddInflight(1)
		c.Next()
		m.AddInflight(-1)

		m.ObserveHTTPRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}
