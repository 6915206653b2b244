package rpaudit

import (
	"context"

	"techbot/internal/app/domains/entity/etorder"
)

// AuditRepository 状态流转审计仓储
type AuditRepository interface {
	// Create 写入一条审计记录
	Create(ctx context.Context, record *etorder.TransitionRecord) error

	// ListByOrder 按订单号倒序查询最近的记录
	ListByOrder(ctx context.Context, orderID string, limit int) ([]*etorder.TransitionRecord, error)
}
