package rpaudit

import (
	"time"

	"gorm.io/datatypes"
)

// TransitionAudit 审计表实体
type TransitionAudit struct {
	ID           string         `gorm:"column:id;primaryKey;type:varchar(64)"`
	OrderID      string         `gorm:"column:order_id;type:varchar(32);not null;index:idx_order_created"`
	RecordID     string         `gorm:"column:record_id;type:varchar(64);not null"`
	Action       string         `gorm:"column:action;type:varchar(64);not null"`
	FromStatus   string         `gorm:"column:from_status;type:varchar(64);not null"`
	ToStatus     string         `gorm:"column:to_status;type:varchar(64);not null"`
	Terminal     bool           `gorm:"column:terminal;not null;default:false"`
	TechnicianID string         `gorm:"column:technician_id;type:varchar(64);index:idx_technician"`
	Sender       string         `gorm:"column:sender;type:varchar(32)"`
	Token        datatypes.JSON `gorm:"column:token;type:json"`
	CreatedAt    time.Time      `gorm:"column:created_at;not null;index:idx_order_created"`
}

// TableName 指定表名
func (TransitionAudit) TableName() string {
	return "order_transition_audits"
}
