package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/groupbuy-settlement/internal/pkg/ctxutil"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

// probeRoutes are polled by orchestrators and logged at debug only.
var probeRoutes = map[string]bool{"/healthcheck": true, "/readyz": true}

// RequestLogger writes one line per request with the caller and the ledger object it touched.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if log == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, "object_id", id)
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.Identity != "" {
			fields = append(fields, "identity", rd.Identity, "role", rd.Role)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case probeRoutes[route]:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
