package lmstfy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"techbot/internal/app/domains/entity/etmessage"
	"techbot/internal/app/pkg/logger"
)

// Publisher 队列发布接口
type Publisher interface {
	Publish(queue string, data []byte, ttl time.Duration, tries uint16, delay time.Duration) (string, error)
}

// OutboxMessage 出站消息队列中的任务体
type OutboxMessage struct {
	TraceID  string              `json:"trace_id,omitempty"`
	Message  *etmessage.Outbound `json:"message"`
	QueuedAt time.Time           `json:"queued_at"`
}

// MessengerConfig 队列发送配置
type MessengerConfig struct {
	Queue string
	TTL   time.Duration
	Tries uint16
}

// QueuedMessenger 将出站消息写入队列，由 outbox 消费者异步发送
type QueuedMessenger struct {
	pub Publisher
	cfg MessengerConfig
	now func() time.Time
}

// NewQueuedMessenger 创建队列发送器
func NewQueuedMessenger(pub Publisher, cfg MessengerConfig) *QueuedMessenger {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Tries == 0 {
		cfg.Tries = 3
	}
	return &QueuedMessenger{pub: pub, cfg: cfg, now: time.Now}
}

// Send 入队一条出站消息
func (m *QueuedMessenger) Send(ctx context.Context, msg *etmessage.Outbound) error {
	data, err := json.Marshal(OutboxMessage{
		TraceID:  logger.TraceID(ctx),
		Message:  msg,
		QueuedAt: m.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal outbox message failed: %w", err)
	}
	if _, err := m.pub.Publish(m.cfg.Queue, data, m.cfg.TTL, m.cfg.Tries, 0); err != nil {
		return err
	}
	return nil
}

// DecodeOutboxMessage 解析队列任务体
func DecodeOutboxMessage(data []byte) (*OutboxMessage, error) {
	var out OutboxMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal outbox message failed: %w", err)
	}
	if out.Message == nil {
		return nil, fmt.Errorf("outbox message is empty")
	}
	if out.Message.ChannelID == "" || out.Message.To == "" {
		return nil, fmt.Errorf("outbox message missing channel or recipient")
	}
	return &out, nil
}
