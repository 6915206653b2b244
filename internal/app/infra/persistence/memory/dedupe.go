package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// DefaultDedupeWindow 消息 ID 去重窗口
const DefaultDedupeWindow = 5 * time.Minute

// Deduplicator 进程内限时去重集合
// 条目过期后自动失效，不持久化，进程重启后窗口清空
type Deduplicator struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	window  time.Duration
	now     func() time.Time
	hits    *atomic.Int64
	lastGC  time.Time
	gcEvery time.Duration
}

// NewDeduplicator 创建去重集合
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	return &Deduplicator{
		seen:    make(map[string]time.Time),
		window:  window,
		now:     time.Now,
		hits:    atomic.NewInt64(0),
		gcEvery: window,
	}
}

// MarkNew 记录消息 ID，窗口内首次出现返回 true
func (d *Deduplicator) MarkNew(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return true, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.gcLocked(now)

	if expiry, ok := d.seen[id]; ok && now.Before(expiry) {
		d.hits.Inc()
		return false, nil
	}
	d.seen[id] = now.Add(d.window)
	return true, nil
}

// Hits 命中重复的次数
func (d *Deduplicator) Hits() int64 {
	return d.hits.Load()
}

// Len 当前窗口内的条目数
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *Deduplicator) gcLocked(now time.Time) {
	if now.Sub(d.lastGC) < d.gcEvery {
		return
	}
	for id, expiry := range d.seen {
		if !now.Before(expiry) {
			delete(d.seen, id)
		}
	}
	d.lastGC = now
}
