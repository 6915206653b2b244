package etmessage

// OutboundKind 出站消息类型
type OutboundKind string

const (
	OutboundText    OutboundKind = "text"
	OutboundButtons OutboundKind = "buttons"
	OutboundList    OutboundKind = "list"
	OutboundCTA     OutboundKind = "cta_url"
)

// Button 回复按钮，ID 为关联令牌
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Row 列表行
type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Section 列表分组
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// CTA 打开外部链接的按钮
type CTA struct {
	DisplayText string `json:"display_text"`
	URL         string `json:"url"`
}

// Outbound 出站消息（与具体传输协议无关，可直接入队）
type Outbound struct {
	ChannelID  string       `json:"channel_id"`
	To         string       `json:"to"`
	Kind       OutboundKind `json:"kind"`
	Header     string       `json:"header,omitempty"`
	Body       string       `json:"body"`
	Footer     string       `json:"footer,omitempty"`
	Buttons    []Button     `json:"buttons,omitempty"`
	ListButton string       `json:"list_button,omitempty"`
	Sections   []Section    `json:"sections,omitempty"`
	CTA        *CTA         `json:"cta,omitempty"`
}

// NewText 纯文本消息
func NewText(channelID, to, body string) *Outbound {
	return &Outbound{ChannelID: channelID, To: to, Kind: OutboundText, Body: body}
}

// NewButtons 按钮消息
func NewButtons(channelID, to, header, body string, buttons []Button) *Outbound {
	return &Outbound{
		ChannelID: channelID,
		To:        to,
		Kind:      OutboundButtons,
		Header:    header,
		Body:      body,
		Buttons:   buttons,
	}
}

// NewList 分组列表消息
func NewList(channelID, to, header, body, button string, sections []Section) *Outbound {
	return &Outbound{
		ChannelID:  channelID,
		To:         to,
		Kind:       OutboundList,
		Header:     header,
		Body:       body,
		ListButton: button,
		Sections:   sections,
	}
}

// NewCTA 外部表单链接消息
func NewCTA(channelID, to, header, body string, cta CTA) *Outbound {
	return &Outbound{
		ChannelID: channelID,
		To:        to,
		Kind:      OutboundCTA,
		Header:    header,
		Body:      body,
		CTA:       &cta,
	}
}

// RowCount 列表总行数
func (o *Outbound) RowCount() int {
	n := 0
	for _, s := range o.Sections {
		n += len(s.Rows)
	}
	return n
}
