package middlewares

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"techbot/internal/app/pkg/ginx"
	"techbot/internal/app/pkg/logger"
)

// ErrorHandler 统一错误处理中间件
// 捕获 panic 并渲染 handler 通过 c.Error 上报、尚未写出的错误
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				log.Errorf(c.Request.Context(), "[HTTP] panic recovered: %v\n%s", p, debug.Stack())
				ginx.InternalError(c, http.StatusText(http.StatusInternalServerError))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		log.Errorf(c.Request.Context(), "[HTTP] request failed: %v", err.Err)
		if !c.Writer.Written() {
			ginx.InternalError(c, err.Error())
		}
	}
}
