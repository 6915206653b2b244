package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduplicator 基于 SETNX 的消息 ID 去重，多实例共享窗口
type Deduplicator struct {
	rdb    *redis.Client
	prefix string
	window time.Duration
}

// NewDeduplicator 创建 Redis 去重集合
func NewDeduplicator(rdb *redis.Client, window time.Duration) *Deduplicator {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &Deduplicator{rdb: rdb, prefix: "dedupe:msg:", window: window}
}

// MarkNew 窗口内首次出现返回 true
func (d *Deduplicator) MarkNew(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return true, nil
	}
	ok, err := d.rdb.SetNX(ctx, d.prefix+id, 1, d.window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}
