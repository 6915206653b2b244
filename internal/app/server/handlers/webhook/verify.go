package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"techbot/internal/app/infra/transport/whatsapp"
	"techbot/internal/app/pkg/ginx"
)

// Verify 订阅校验接口
// GET /webhook?hub.mode=subscribe&hub.verify_token=...&hub.challenge=...
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, ok := whatsapp.VerifySubscription(h.cfg.VerifyToken,
		c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if !ok {
		h.logger.Warnf(c.Request.Context(), "[Webhook] subscription verification failed: mode=%s", c.Query("hub.mode"))
		ginx.Forbidden(c, "verification failed")
		return
	}
	h.logger.Infof(c.Request.Context(), "[Webhook] subscription verified")
	c.String(http.StatusOK, challenge)
}
