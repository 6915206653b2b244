package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"techbot/internal/app/infra/transport/whatsapp"
	"techbot/internal/app/pkg/ginx"
)

const maxBodySize = 1 << 20

// ReceiveResult 处理结果
type ReceiveResult struct {
	Events   int `json:"events"`
	Statuses int `json:"statuses"`
	Dropped  int `json:"dropped"`
}

// Receive 接收平台推送
// POST /webhook
// 事件在请求内同步处理完成后再返回 200，重复投递由去重吸收
func (h *WebhookHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		ginx.BadRequest(c, "unreadable body")
		return
	}

	if h.cfg.AppSecret != "" {
		if err := whatsapp.VerifySignature(h.cfg.AppSecret, c.GetHeader(whatsapp.SignatureHeader), body); err != nil {
			h.logger.Warnf(ctx, "[Webhook] rejected payload: %v", err)
			ginx.Unauthorized(c, err.Error())
			return
		}
	}

	var payload whatsapp.WebhookPayload
	if err := binding.JSON.BindBody(body, &payload); err != nil {
		h.logger.Warnf(ctx, "[Webhook] invalid payload: %v", err)
		ginx.BadRequestWithValidation(c, err)
		return
	}

	if !payload.IsBusinessAccount() {
		ginx.NotFound(c, "unsupported object")
		return
	}

	statuses := payload.Statuses()
	for _, s := range statuses {
		h.logger.Infof(ctx, "[Webhook] delivery status: message=%s recipient=%s status=%s", s.MessageID, s.RecipientID, s.Status)
	}

	dropped := payload.Unroutable()
	for _, id := range dropped {
		h.logger.Warnf(ctx, "[Webhook] dropped message %s: change carries no metadata", id)
	}

	events := payload.Events()
	if len(events) == 0 {
		if len(statuses) > 0 || len(dropped) > 0 {
			ginx.Success(c, ReceiveResult{Statuses: len(statuses), Dropped: len(dropped)})
			return
		}
		ginx.NotFound(c, "no message in payload")
		return
	}

	// 平台断开连接不应中断已开始的处理
	base := context.WithoutCancel(ctx)
	for i := range events {
		evCtx, cancel := context.WithTimeout(base, h.cfg.EventTimeout)
		if err := h.events.HandleEvent(evCtx, &events[i]); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				h.logger.Errorf(evCtx, "[Webhook] event %s timed out", events[i].MessageID)
			} else {
				h.logger.Errorf(evCtx, "[Webhook] event %s failed: %v", events[i].MessageID, err)
			}
		}
		cancel()
	}

	ginx.Success(c, ReceiveResult{Events: len(events), Statuses: len(statuses), Dropped: len(dropped)})
}
