package etmessage

import "time"

// Kind 入站消息类型
type Kind string

const (
	KindText        Kind = "text"
	KindInteractive Kind = "interactive"
	KindImage       Kind = "image"
	KindOther       Kind = "other"
)

// InboundEvent 传输层投递的入站事件（已从 webhook 载荷中提取）
type InboundEvent struct {
	MessageID  string // 传输层分配的消息 ID，用于去重
	From       string // 发送者（技师聊天身份）
	ChannelID  string // 接收渠道（phone_number_id）
	SenderName string
	Kind       Kind
	Text       string

	// 交互回复
	ReplyID    string // 关联令牌
	ReplyTitle string

	// 图片
	MediaID string
	Caption string

	ReceivedAt time.Time
}

// DeliveryStatus 出站消息的投递回执（sent/delivered/read/failed）
type DeliveryStatus struct {
	MessageID   string
	RecipientID string
	Status      string
	Timestamp   string
}
