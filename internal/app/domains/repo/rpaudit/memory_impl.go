package rpaudit

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"techbot/internal/app/domains/entity/etorder"
)

// MemoryRepository 进程内审计仓储（未配置 MySQL 时使用）
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*etorder.TransitionRecord
}

// NewMemoryRepository 创建内存审计仓储
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, record *etorder.TransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	c := *record
	r.records = append(r.records, &c)
	return nil
}

func (r *MemoryRepository) ListByOrder(ctx context.Context, orderID string, limit int) ([]*etorder.TransitionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*etorder.TransitionRecord
	for _, rec := range r.records {
		if rec.OrderID == orderID {
			c := *rec
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
