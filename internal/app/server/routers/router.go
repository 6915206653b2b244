package routers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"techbot/internal/app/pkg/logger"
	"techbot/internal/app/server/handlers/webhook"
	"techbot/internal/app/server/middlewares"
)

// SetupRoutes 配置所有路由
func SetupRoutes(webhookHandler *webhook.WebhookHandler, log logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(middlewares.Logger(log))
	r.Use(middlewares.ErrorHandler(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "techbot",
			"message": "Service is running",
		})
	})

	hooks := r.Group("/webhook")
	{
		hooks.GET("", webhookHandler.Verify)
		hooks.POST("", webhookHandler.Receive)
	}

	return r
}
