package whatsapp

import (
	"strconv"
	"strings"
	"time"

	"techbot/internal/app/domains/entity/etmessage"
)

// BusinessAccountObject webhook 载荷中 object 字段的合法取值
const BusinessAccountObject = "whatsapp_business_account"

// WebhookPayload 平台推送的 webhook 载荷
type WebhookPayload struct {
	Object string  `json:"object" binding:"required"`
	Entry  []Entry `json:"entry" binding:"dive"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes" binding:"dive"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         *Metadata `json:"metadata"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages" binding:"dive"`
	Statuses         []Status  `json:"statuses"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type Message struct {
	ID          string       `json:"id" binding:"required"`
	From        string       `json:"from" binding:"required"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type" binding:"required"`
	Text        *TextBody    `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
	Image       *Media       `json:"image,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *Reply `json:"button_reply,omitempty"`
	ListReply   *Reply `json:"list_reply,omitempty"`
}

type Reply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
}

type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
	Timestamp   string `json:"timestamp"`
}

// IsBusinessAccount 载荷是否来自业务账号
func (p *WebhookPayload) IsBusinessAccount() bool {
	return p.Object == BusinessAccountObject
}

// Statuses 提取投递回执
func (p *WebhookPayload) Statuses() []etmessage.DeliveryStatus {
	var out []etmessage.DeliveryStatus
	for _, e := range p.Entry {
		for _, c := range e.Changes {
			for _, s := range c.Value.Statuses {
				out = append(out, etmessage.DeliveryStatus{
					MessageID:   s.ID,
					RecipientID: s.RecipientID,
					Status:      s.Status,
					Timestamp:   s.Timestamp,
				})
			}
		}
	}
	return out
}

// Unroutable 缺少 metadata 的变更中的消息 ID，这些消息没有可回复的渠道
func (p *WebhookPayload) Unroutable() []string {
	var out []string
	for _, e := range p.Entry {
		for _, c := range e.Changes {
			if c.Value.Metadata != nil {
				continue
			}
			for _, m := range c.Value.Messages {
				out = append(out, m.ID)
			}
		}
	}
	return out
}

// Events 提取入站事件，缺少 metadata 的变更见 Unroutable
func (p *WebhookPayload) Events() []etmessage.InboundEvent {
	var out []etmessage.InboundEvent
	for _, e := range p.Entry {
		for _, c := range e.Changes {
			if c.Value.Metadata == nil {
				continue
			}
			names := make(map[string]string, len(c.Value.Contacts))
			for _, ct := range c.Value.Contacts {
				names[ct.WaID] = ct.Profile.Name
			}
			for _, m := range c.Value.Messages {
				ev := toEvent(m)
				ev.ChannelID = c.Value.Metadata.PhoneNumberID
				ev.SenderName = names[m.From]
				if ev.SenderName == "" {
					ev.SenderName = "Unknown"
				}
				out = append(out, ev)
			}
		}
	}
	return out
}

func toEvent(m Message) etmessage.InboundEvent {
	ev := etmessage.InboundEvent{
		MessageID:  m.ID,
		From:       m.From,
		Kind:       etmessage.KindOther,
		ReceivedAt: parseUnix(m.Timestamp),
	}

	switch m.Type {
	case "text":
		ev.Kind = etmessage.KindText
		if m.Text != nil {
			ev.Text = strings.TrimSpace(m.Text.Body)
		}
	case "interactive":
		ev.Kind = etmessage.KindInteractive
		if m.Interactive != nil {
			reply := m.Interactive.ListReply
			if reply == nil {
				reply = m.Interactive.ButtonReply
			}
			if reply != nil {
				ev.ReplyID = reply.ID
				ev.ReplyTitle = reply.Title
			}
		}
	case "image":
		ev.Kind = etmessage.KindImage
		if m.Image != nil {
			ev.MediaID = m.Image.ID
			ev.Caption = strings.ToLower(strings.TrimSpace(m.Image.Caption))
		}
	}
	return ev
}

func parseUnix(ts string) time.Time {
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
