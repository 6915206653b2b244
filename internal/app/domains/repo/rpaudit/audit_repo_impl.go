package rpaudit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"techbot/internal/app/domains/entity/etorder"
)

// AuditRepositoryImpl 审计仓储实现（MySQL）
type AuditRepositoryImpl struct {
	db *gorm.DB
}

// NewAuditRepository 创建审计仓储实例
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

// AutoMigrate 创建或更新审计表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&TransitionAudit{})
}

// Create 将领域对象转换为 GORM 模型后存储
func (r *AuditRepositoryImpl) Create(ctx context.Context, record *etorder.TransitionRecord) error {
	po, err := toGormModel(record)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("create transition audit failed: %w", err)
	}
	record.ID = po.ID
	return nil
}

// ListByOrder 按订单号倒序查询
func (r *AuditRepositoryImpl) ListByOrder(ctx context.Context, orderID string, limit int) ([]*etorder.TransitionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var pos []TransitionAudit
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("list transition audits failed: %w", err)
	}

	out := make([]*etorder.TransitionRecord, 0, len(pos))
	for i := range pos {
		rec, err := toDomainModel(&pos[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func toGormModel(record *etorder.TransitionRecord) (*TransitionAudit, error) {
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}
	var token datatypes.JSON
	if len(record.Token) > 0 {
		raw, err := json.Marshal(record.Token)
		if err != nil {
			return nil, fmt.Errorf("marshal token failed: %w", err)
		}
		token = datatypes.JSON(raw)
	}
	return &TransitionAudit{
		ID:           id,
		OrderID:      record.OrderID,
		RecordID:     record.RecordID,
		Action:       string(record.Action),
		FromStatus:   record.From,
		ToStatus:     record.To,
		Terminal:     record.Terminal,
		TechnicianID: record.TechnicianID,
		Sender:       record.Sender,
		Token:        token,
		CreatedAt:    record.OccurredAt,
	}, nil
}

func toDomainModel(po *TransitionAudit) (*etorder.TransitionRecord, error) {
	rec := &etorder.TransitionRecord{
		ID:           po.ID,
		OrderID:      po.OrderID,
		RecordID:     po.RecordID,
		Action:       etorder.Action(po.Action),
		From:         po.FromStatus,
		To:           po.ToStatus,
		Terminal:     po.Terminal,
		TechnicianID: po.TechnicianID,
		Sender:       po.Sender,
		OccurredAt:   po.CreatedAt,
	}
	if len(po.Token) > 0 {
		if err := json.Unmarshal(po.Token, &rec.Token); err != nil {
			return nil, fmt.Errorf("unmarshal token failed: %w", err)
		}
	}
	return rec, nil
}
