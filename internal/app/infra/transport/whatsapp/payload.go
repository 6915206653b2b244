package whatsapp

import (
	"fmt"

	"techbot/internal/app/domains/entity/etmessage"
)

// BuildPayload 将出站消息转换为 Graph API 请求体
// 超过 3 个按钮时改为单分组列表
func BuildPayload(msg *etmessage.Outbound) (map[string]any, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                msg.To,
	}

	switch msg.Kind {
	case etmessage.OutboundText, "":
		payload["type"] = "text"
		payload["text"] = map[string]any{"body": msg.Body}
		return payload, nil

	case etmessage.OutboundButtons:
		if len(msg.Buttons) == 0 {
			return nil, fmt.Errorf("whatsapp: button message without buttons")
		}
		if len(msg.Buttons) > maxButtons {
			return BuildPayload(buttonsAsList(msg))
		}
		buttons := make([]map[string]any, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			buttons = append(buttons, map[string]any{
				"type":  "reply",
				"reply": map[string]any{"id": b.ID, "title": clip(b.Title, maxButtonTitleLen)},
			})
		}
		payload["type"] = "interactive"
		payload["interactive"] = interactive("button", msg, map[string]any{"buttons": buttons})
		return payload, nil

	case etmessage.OutboundList:
		if msg.RowCount() == 0 {
			return nil, fmt.Errorf("whatsapp: list message without rows")
		}
		sections := make([]map[string]any, 0, len(msg.Sections))
		for _, s := range msg.Sections {
			if len(s.Rows) == 0 {
				continue
			}
			rows := make([]map[string]any, 0, len(s.Rows))
			for _, r := range s.Rows {
				row := map[string]any{"id": r.ID, "title": clip(r.Title, maxRowTitleLen)}
				if r.Description != "" {
					row["description"] = clip(r.Description, maxRowDescLen)
				}
				rows = append(rows, row)
			}
			sections = append(sections, map[string]any{"title": clip(s.Title, maxRowTitleLen), "rows": rows})
		}
		button := msg.ListButton
		if button == "" {
			button = "Options"
		}
		payload["type"] = "interactive"
		payload["interactive"] = interactive("list", msg, map[string]any{
			"button":   clip(button, maxListButtonLen),
			"sections": sections,
		})
		return payload, nil

	case etmessage.OutboundCTA:
		if msg.CTA == nil || msg.CTA.URL == "" {
			return nil, fmt.Errorf("whatsapp: cta message without url")
		}
		payload["type"] = "interactive"
		payload["interactive"] = interactive("cta_url", msg, map[string]any{
			"name": "cta_url",
			"parameters": map[string]any{
				"display_text": clip(msg.CTA.DisplayText, maxButtonTitleLen),
				"url":          msg.CTA.URL,
			},
		})
		return payload, nil
	}

	return nil, fmt.Errorf("whatsapp: unsupported message kind %q", msg.Kind)
}

func interactive(kind string, msg *etmessage.Outbound, action map[string]any) map[string]any {
	out := map[string]any{
		"type":   kind,
		"body":   map[string]any{"text": msg.Body},
		"action": action,
	}
	if msg.Header != "" {
		out["header"] = map[string]any{"type": "text", "text": clip(msg.Header, maxHeaderLen)}
	}
	if msg.Footer != "" {
		out["footer"] = map[string]any{"text": msg.Footer}
	}
	return out
}

func buttonsAsList(msg *etmessage.Outbound) *etmessage.Outbound {
	rows := make([]etmessage.Row, 0, len(msg.Buttons))
	for _, b := range msg.Buttons {
		rows = append(rows, etmessage.Row{ID: b.ID, Title: b.Title})
	}
	title := msg.Header
	if title == "" {
		title = "Options"
	}
	return etmessage.NewList(msg.ChannelID, msg.To, msg.Header, msg.Body, "Options",
		[]etmessage.Section{{Title: title, Rows: rows}})
}

// clip 按字符截断（平台对标题长度有限制）
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
