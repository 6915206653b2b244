package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusEvent 订单状态变更事件
type StatusEvent struct {
	OrderID      string    `json:"order_id"`
	RecordID     string    `json:"record_id"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	Action       string    `json:"action"`
	TechnicianID string    `json:"technician_id"`
	Terminal     bool      `json:"terminal"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// StatusChannel 订单状态事件频道
func StatusChannel(orderID string) string {
	return "order:status:" + orderID
}

// PubSubClient Redis Pub/Sub 客户端封装
type PubSubClient struct {
	rdb *redis.Client
}

// NewPubSubClient 创建 Pub/Sub 客户端
func NewPubSubClient(rdb *redis.Client) *PubSubClient {
	return &PubSubClient{rdb: rdb}
}

// PublishStatus 发布订单状态变更
func (c *PubSubClient) PublishStatus(ctx context.Context, event *StatusEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event failed: %w", err)
	}
	return c.rdb.Publish(ctx, StatusChannel(event.OrderID), data).Err()
}
