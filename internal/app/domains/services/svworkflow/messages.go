package svworkflow

import (
	"fmt"
	"strings"
	"time"

	"techbot/internal/app/domains/entity/etdocument"
	"techbot/internal/app/domains/entity/etmessage"
	"techbot/internal/app/domains/entity/etorder"
	"techbot/internal/app/domains/entity/etsession"
	"techbot/internal/app/domains/services/svorder"
	"techbot/internal/app/pkg/correlation"
)

// 回复文案
const (
	msgEnterPhone      = "📱 Please enter your registered mobile number."
	msgInvalidPhone    = "❌ Invalid number. Please enter a valid 10-digit mobile number."
	msgOTPSent         = "✅ OTP has been sent successfully. Please enter the OTP."
	msgOTPResent       = "🔄 OTP has been resent. Please enter the new OTP."
	msgPhoneMissing    = "⚠️ Phone number not found. Please re-enter your number."
	msgInvalidOTP      = "❌ Invalid OTP. Attempt %d/%d. Try again or type 'resend' to get a new OTP."
	msgTooManyAttempts = "❌ Too many incorrect attempts. Please type 'resend' to get a new OTP."
	msgVerified        = "✅ OTP verified successfully. How can I help you today?"
	msgOTPFailed       = "❌ Failed to send OTP: Please try again later"

	msgStatusUpdated  = "Order status updated successfully."
	msgOrderRejected  = "You no longer have access to this order."
	msgOrderCompleted = "You have successfully completed your order. Say 'Hi' to start a new order."
	msgUpdateFailed   = "Failed to update order status. Please try again later."
	msgStaleAction    = "This order has moved on. Here are the actions available now."
	msgUnprocessable  = "Sorry, we couldn't process your selection."
	msgGenericError   = "We are unable to process your request. Please try again later."
	msgNoPending      = "Currently you have no pending orders. Try again later."
	msgNoOrders       = "No orders found at this time."
	msgOrderNotFound  = "We could not find order %s. Please check the order number."
	msgNoActions      = "No further actions are available for this order."

	msgInvalidCaption  = "Document name not found or invalid. Please reupload the image with a valid document name (e.g., invoice, serial, device)."
	msgDocumentSaved   = "✅ %s received. Upload the remaining documents or tap Verify Documents."
	msgDocumentsOK     = "✅ All required documents are uploaded for order %s."
	msgDocumentsNeeded = "Please upload these required documents to continue:\n\n%s\n\nSend each image with its name as the caption (e.g., invoice, serial, device)."
	msgUploadedCount   = "You have uploaded %d document image(s). Open an order and tap Verify Documents to check it."
)

const (
	listButton   = "View Orders"
	menuButton   = "Get Orders"
	maxListRows  = 10
	verifyButton = "Verify Documents"
	uploadButton = "Upload Document"
	formButton   = "Open Form"

	historyLimit = 3
)

var scheduleZone = time.FixedZone("IST", 5*3600+1800)

// promptText 会话提示转换为文案
func promptText(p etsession.Prompt, attempt, maxRetries int) string {
	switch p {
	case etsession.PromptEnterPhone:
		return msgEnterPhone
	case etsession.PromptInvalidPhone:
		return msgInvalidPhone
	case etsession.PromptOTPSent:
		return msgOTPSent
	case etsession.PromptOTPResent:
		return msgOTPResent
	case etsession.PromptPhoneMissing:
		return msgPhoneMissing
	case etsession.PromptInvalidOTP:
		return fmt.Sprintf(msgInvalidOTP, attempt, maxRetries)
	case etsession.PromptTooManyAttempts:
		return msgTooManyAttempts
	case etsession.PromptVerified:
		return msgVerified
	}
	return ""
}

// renderer 构建出站消息，固定渠道与接收方
type renderer struct {
	channelID string
	to        string
	botName   string
	formURL   string
}

func (r renderer) text(body string) *etmessage.Outbound {
	return etmessage.NewText(r.channelID, r.to, body)
}

// mainMenu 主菜单列表
func (r renderer) mainMenu(name string) *etmessage.Outbound {
	if name == "" {
		name = r.to
	}
	rows := []etmessage.Row{
		{ID: menuToken(svorder.MenuPending), Title: svorder.MenuPending.Title(), Description: "Not yet started."},
		{ID: menuToken(svorder.MenuWIP), Title: svorder.MenuWIP.Title(), Description: "In progress."},
		{ID: menuToken(svorder.MenuCompleted), Title: svorder.MenuCompleted.Title(), Description: "Finished."},
	}
	return etmessage.NewList(r.channelID, r.to,
		fmt.Sprintf("Hi %s, welcome to %s.", name, r.botName),
		"Please choose an option.",
		menuButton,
		[]etmessage.Section{{Title: "Options", Rows: rows}},
	)
}

// listing 分组订单列表，总行数不超过 maxListRows
func (r renderer) listing(menu svorder.Menu, sections []svorder.Section) *etmessage.Outbound {
	out := make([]etmessage.Section, 0, len(sections))
	budget := maxListRows
	for _, s := range sections {
		if budget == 0 {
			break
		}
		rows := make([]etmessage.Row, 0, len(s.Orders))
		for _, o := range s.Orders {
			if budget == 0 {
				break
			}
			rows = append(rows, orderRow(o))
			budget--
		}
		out = append(out, etmessage.Section{Title: s.Title, Rows: rows})
	}
	title := menu.Title()
	return etmessage.NewList(r.channelID, r.to, title,
		fmt.Sprintf("Here are your %s.", strings.ToLower(title)),
		listButton, out)
}

func orderRow(o *etorder.Order) etmessage.Row {
	id := correlation.Encode(correlation.Fields{
		{Key: correlation.KeyAction, Value: o.CurrentStatus.Code},
		{Key: correlation.KeyOrderID, Value: o.OrderID},
		{Key: correlation.KeyRecordID, Value: o.RecordID},
	})
	desc := fmt.Sprintf("%s - %s | %s | %s | %s", o.Category, o.SubCategory, o.Brand, o.Warranty, o.ServiceComment)
	return etmessage.Row{ID: id, Title: o.OrderID, Description: desc}
}

// orderCard 订单详情与当前可执行动作
func (r renderer) orderCard(o *etorder.Order, actions []etorder.Action) *etmessage.Outbound {
	body := fmt.Sprintf("📦 Order Details\n\n🆔 Status: %s\n📅 Schedule: %s\n\n🔧 Appliance: %s - %s\n\n👤 Customer: %s\n📍 Address: %s, %s",
		o.CurrentStatus.Label, schedule(o.ServiceDateTime),
		o.Category, o.SubCategory,
		o.CustomerName, o.Address, o.City)

	if len(actions) == 0 {
		return r.text(fmt.Sprintf("Order ID: %s\n\n%s\n\n%s", o.OrderID, body, msgNoActions))
	}

	buttons := make([]etmessage.Button, 0, len(actions)+1)
	completable := false
	for _, a := range actions {
		buttons = append(buttons, etmessage.Button{ID: actionToken(string(a), o), Title: a.Title()})
		if a.RequiresDocuments() {
			completable = true
		}
	}
	if completable {
		buttons = append(buttons, etmessage.Button{ID: actionToken(string(svorder.MenuUploadDocument), o), Title: uploadButton})
	}
	return etmessage.NewButtons(r.channelID, r.to, "Order ID: "+o.OrderID, body, buttons)
}

// orderSummary 已完成订单的摘要，附最近几次流转（history 按时间倒序）
func (r renderer) orderSummary(o *etorder.Order, history []*etorder.TransitionRecord) *etmessage.Outbound {
	body := fmt.Sprintf("📦 *Order Details*\n\n🆔 *Status:* %s\n📅 *Schedule:* %s\n\n🔧 *Appliance:* %s - %s\n• Issue: %s\n\n👤 *Customer:* %s\n• %s, %s\n• 📞 %s",
		o.CurrentStatus.Label, schedule(o.ServiceDateTime),
		o.Category, o.SubCategory, o.Issue,
		o.CustomerName, o.Address, o.City, o.CustomerMobile)
	if len(history) == 0 {
		return r.text(body)
	}

	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("• %s: %s → %s", schedule(h.OccurredAt), statusLabel(h.From), statusLabel(h.To)))
	}
	return r.text(body + "\n\n🕘 *Recent updates:*\n" + strings.Join(lines, "\n"))
}

func statusLabel(code string) string {
	if s, err := etorder.StatusByCode(code); err == nil {
		return s.Label
	}
	return code
}

// documentPrompt 上传说明与校验按钮，order 为空时展示通用清单
func (r renderer) documentPrompt(o *etorder.Order, missing []etdocument.Rule) []*etmessage.Outbound {
	var names []string
	if o == nil {
		names = []string{etdocument.TypeDevicePhoto.String(), etdocument.TypeSerialNumber.String(), etdocument.TypeInvoice.String()}
	} else {
		for _, m := range missing {
			names = append(names, m.String())
		}
	}

	lines := make([]string, len(names))
	for i, n := range names {
		lines[i] = fmt.Sprintf("%d. %s", i+1, n)
	}

	verifyID := menuToken(svorder.MenuVerifyDocument)
	if o != nil {
		verifyID = actionToken(string(svorder.MenuVerifyDocument), o)
	}
	msgs := []*etmessage.Outbound{
		etmessage.NewButtons(r.channelID, r.to, svorder.MenuUploadDocument.Title(),
			fmt.Sprintf(msgDocumentsNeeded, strings.Join(lines, "\n")),
			[]etmessage.Button{{ID: verifyID, Title: verifyButton}}),
	}
	if r.formURL != "" {
		msgs = append(msgs, etmessage.NewCTA(r.channelID, r.to, svorder.MenuUploadDocument.Title(),
			"You can also submit the documents through the online form.",
			etmessage.CTA{DisplayText: formButton, URL: r.formURL}))
	}
	return msgs
}

func menuToken(m svorder.Menu) string {
	return correlation.Encode(correlation.Fields{{Key: correlation.KeyAction, Value: string(m)}})
}

func actionToken(key string, o *etorder.Order) string {
	return correlation.Encode(correlation.Fields{
		{Key: correlation.KeyAction, Value: key},
		{Key: correlation.KeyOrderID, Value: o.OrderID},
		{Key: correlation.KeyRecordID, Value: o.RecordID},
		{Key: correlation.KeyCurrentStatus, Value: o.CurrentStatus.Code},
	})
}

func schedule(t time.Time) string {
	if t.IsZero() {
		return "Not scheduled"
	}
	return t.In(scheduleZone).Format("02/01/2006, 3:04 pm")
}
