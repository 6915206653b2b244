package webhook

import (
	"context"
	"time"

	"techbot/internal/app/domains/entity/etmessage"
	"techbot/internal/app/pkg/logger"
)

// DefaultEventTimeout 单条事件的处理时限
const DefaultEventTimeout = 30 * time.Second

// EventHandler 入站事件处理
type EventHandler interface {
	HandleEvent(ctx context.Context, ev *etmessage.InboundEvent) error
}

// Config webhook 校验配置
type Config struct {
	VerifyToken  string
	AppSecret    string // 为空时不校验签名
	EventTimeout time.Duration
}

// WebhookHandler webhook HTTP 处理器
type WebhookHandler struct {
	events EventHandler
	cfg    Config
	logger logger.Logger
}

// NewWebhookHandler 创建 webhook 处理器实例
func NewWebhookHandler(events EventHandler, cfg Config, log logger.Logger) *WebhookHandler {
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = DefaultEventTimeout
	}
	return &WebhookHandler{
		events: events,
		cfg:    cfg,
		logger: log,
	}
}
