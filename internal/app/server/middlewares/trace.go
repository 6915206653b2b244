package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"techbot/internal/app/pkg/ginx"
	"techbot/internal/app/pkg/logger"
)

// TraceHeader 透传的 trace 请求头
const TraceHeader = "X-Request-Id"

// Logger 请求日志中间件，为每个请求分配 trace_id 并写入 Context
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(ginx.TraceIDKey, traceID)
		c.Header(TraceHeader, traceID)
		ctx := logger.WithTrace(c.Request.Context(), traceID, "", "")
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		log.Infof(ctx, "[HTTP] %s %s status=%d latency=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
