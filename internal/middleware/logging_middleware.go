package middleware

import (
	"strings"
	"time"

	"github.com/annel0/voxel-planets/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDKey - ключ gin.Context с идентификатором трассировки запроса
const TraceIDKey = "trace_id"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи
// в компонентный логгер "api".
type RequestLogger struct {
	logger *logging.Logger
}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{logger: logging.GetComponentLogger("api")}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id из OpenTelemetry, если otelgin уже открыл span
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			rl.logger.Warn("%s %s %d %s ip=%s trace=%s", c.Request.Method, routeOf(c), status, time.Since(start), c.ClientIP(), traceID)
			return
		}
		rl.logger.Debug("%s %s %d %s trace=%s", c.Request.Method, routeOf(c), status, time.Since(start), traceID)
	}
}

func routeOf(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	// для не-матченных маршрутов, чтобы не раздувать метки
	return "unmatched"
}
