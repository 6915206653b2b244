package etorder

import "time"

// TransitionRecord 状态流转审计记录
// 只记录后端确认成功的流转
type TransitionRecord struct {
	ID           string
	OrderID      string
	RecordID     string
	Action       Action
	From         string
	To           string
	Terminal     bool
	TechnicianID string
	Sender       string
	Token        map[string]string // 触发本次流转的关联令牌（解码后）
	OccurredAt   time.Time
}
