package consumer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"

	"techbot/internal/app/domains/entity/etmessage"
	"techbot/internal/app/infra/mq/lmstfy"
	"techbot/internal/app/pkg/errorx"
	"techbot/internal/app/pkg/logger"
)

// Queue 出站队列
type Queue interface {
	Consume(queue string, ttr, timeout time.Duration) (*lmstfy.Job, error)
	Ack(queue, jobID string) error
}

// Sender 最终的消息发送方（聊天传输层）
type Sender interface {
	Send(ctx context.Context, msg *etmessage.Outbound) error
}

// Config 消费者配置
type Config struct {
	QueueName    string
	Timeout      time.Duration // 拉取消息超时
	TTR          time.Duration // 未 ACK 时重新投递的间隔
	ErrorBackoff time.Duration // 出错后的等待
	SendTimeout  time.Duration
}

// OutboxConsumer 出站消息消费者
// 职责：
// 1. 从 lmstfy 队列拉取出站消息
// 2. 调用传输层发送
// 3. 发送成功后确认消息（ACK）
type OutboxConsumer struct {
	queue   Queue
	sender  Sender
	cfg     Config
	logger  logger.Logger
	closing *atomic.Bool
	done    chan struct{}
}

// NewOutboxConsumer 创建出站消息消费者实例
func NewOutboxConsumer(queue Queue, sender Sender, cfg Config, log logger.Logger) *OutboxConsumer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.TTR <= 0 {
		cfg.TTR = 30 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	return &OutboxConsumer{
		queue:   queue,
		sender:  sender,
		cfg:     cfg,
		logger:  log,
		closing: atomic.NewBool(false),
		done:    make(chan struct{}),
	}
}

// Start 启动消费循环，ctx 取消或 Shutdown 后返回
func (c *OutboxConsumer) Start(ctx context.Context) error {
	defer close(c.done)
	c.logger.Infof(ctx, "[OutboxConsumer] started: queue=%s", c.cfg.QueueName)

	for !c.closing.Load() {
		select {
		case <-ctx.Done():
			c.logger.Infof(ctx, "[OutboxConsumer] stopped")
			return ctx.Err()
		default:
		}

		if err := c.consumeOne(ctx); err != nil {
			c.logger.Errorf(ctx, "[OutboxConsumer] consume failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(c.cfg.ErrorBackoff):
			}
		}
	}

	c.logger.Infof(ctx, "[OutboxConsumer] stopped")
	return nil
}

// Shutdown 停止拉取新消息并等待当前消息处理完成
func (c *OutboxConsumer) Shutdown() {
	if c.closing.CAS(false, true) {
		<-c.done
	}
}

// consumeOne 消费一条消息
func (c *OutboxConsumer) consumeOne(ctx context.Context) error {
	// 1. 从队列拉取消息
	job, err := c.queue.Consume(c.cfg.QueueName, c.cfg.TTR, c.cfg.Timeout)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}

	// 2. 解析消息，失败直接 ACK
	msg, err := lmstfy.DecodeOutboxMessage(job.Data)
	if err != nil {
		c.logger.Errorf(ctx, "[OutboxConsumer] drop malformed job %s: %v", job.ID, err)
		_ = c.queue.Ack(c.cfg.QueueName, job.ID)
		return err
	}

	sendCtx := logger.WithTrace(ctx, msg.TraceID, msg.Message.To, job.ID)
	sendCtx, cancel := context.WithTimeout(sendCtx, c.cfg.SendTimeout)
	defer cancel()

	// 3. 发送，可重试的失败不 ACK（TTR 到期后重新投递）
	if err := c.sender.Send(sendCtx, msg.Message); err != nil {
		if !errorx.IsRetryable(err) {
			c.logger.Errorf(sendCtx, "[OutboxConsumer] drop job %s, send rejected: %v", job.ID, err)
			_ = c.queue.Ack(c.cfg.QueueName, job.ID)
		}
		return fmt.Errorf("send job %s: %w", job.ID, err)
	}

	// 4. 确认消息
	if err := c.queue.Ack(c.cfg.QueueName, job.ID); err != nil {
		return err
	}

	c.logger.Debugf(sendCtx, "[OutboxConsumer] delivered %s message, queued %s ago",
		msg.Message.Kind, time.Since(msg.QueuedAt).Round(time.Millisecond))
	return nil
}
