package svworkflow

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"techbot/internal/app/domains/entity/etdocument"
	"techbot/internal/app/domains/entity/etmessage"
	"techbot/internal/app/domains/entity/etorder"
	"techbot/internal/app/domains/entity/etsession"
	"techbot/internal/app/domains/modules/mdsession"
	"techbot/internal/app/domains/services/svorder"
	"techbot/internal/app/infra/media"
	"techbot/internal/app/infra/transport/whatsapp"
	"techbot/internal/app/pkg/correlation"
	"techbot/internal/app/pkg/errorx"
	"techbot/internal/app/pkg/logger"
)

var orderNumberPattern = regexp.MustCompile(`(?i)^SRVZ-ORD-\d{9,10}$`)

// Messenger 出站消息发送（直连传输层或入队）
type Messenger interface {
	Send(ctx context.Context, msg *etmessage.Outbound) error
}

// Deduplicator 入站消息去重
type Deduplicator interface {
	MarkNew(ctx context.Context, messageID string) (bool, error)
}

// MediaSource 下载技师上传的图片
type MediaSource interface {
	DownloadMedia(ctx context.Context, mediaID string) (*whatsapp.MediaFile, error)
}

// MediaStore 文档图片存储
type MediaStore interface {
	Save(ctx context.Context, f *media.File) (string, error)
	List(ctx context.Context, owner string) ([]string, error)
}

// Options 展示相关配置
type Options struct {
	BotName         string
	DocumentFormURL string
}

// WorkflowService 入站事件处理边界：去重、会话认证、路由、回复
type WorkflowService struct {
	dedupe    Deduplicator
	sessions  *mdsession.SessionModule
	orders    *svorder.OrderService
	messenger Messenger
	source    MediaSource
	store     MediaStore
	opts      Options
	logger    logger.Logger
}

// NewWorkflowService 创建工作流服务实例
func NewWorkflowService(
	dedupe Deduplicator,
	sessions *mdsession.SessionModule,
	orders *svorder.OrderService,
	messenger Messenger,
	source MediaSource,
	store MediaStore,
	opts Options,
	log logger.Logger,
) *WorkflowService {
	if opts.BotName == "" {
		opts.BotName = "SERVIZ Technician Bot"
	}
	return &WorkflowService{
		dedupe:    dedupe,
		sessions:  sessions,
		orders:    orders,
		messenger: messenger,
		source:    source,
		store:     store,
		opts:      opts,
		logger:    log,
	}
}

// HandleEvent 处理单条入站事件（完整业务流程）
// 1. 按消息 ID 去重，重复投递不产生任何回复
// 2. 未认证会话交给会话状态机
// 3. 已认证会话按消息类型路由到订单流程
// 任何失败都回复技师，panic 被恢复为通用错误提示
func (s *WorkflowService) HandleEvent(ctx context.Context, ev *etmessage.InboundEvent) (err error) {
	traceID := logger.TraceID(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	ctx = logger.WithTrace(ctx, traceID, ev.From, ev.MessageID)
	r := s.renderer(ev)

	defer func() {
		if p := recover(); p != nil {
			s.logger.Errorf(ctx, "[WorkflowService] panic recovered: %v", p)
			err = errors.Join(fmt.Errorf("panic: %v", p), s.send(ctx, r.text(msgGenericError)))
		}
	}()

	fresh, derr := s.dedupe.MarkNew(ctx, ev.MessageID)
	if derr != nil {
		s.logger.Warnf(ctx, "[WorkflowService] dedupe failed, processing anyway: %v", derr)
	} else if !fresh {
		s.logger.Infof(ctx, "[WorkflowService] duplicate event dropped")
		return nil
	}

	res, aerr := s.sessions.Advance(ctx, ev.From, ev.Text)
	if aerr != nil {
		if errors.Is(aerr, errorx.ErrSessionBackendFailure) {
			s.logger.Warnf(ctx, "[WorkflowService] otp issuance failed: %v", aerr)
			return s.send(ctx, r.text(msgOTPFailed))
		}
		s.logger.Errorf(ctx, "[WorkflowService] session advance failed: %v", aerr)
		return s.send(ctx, r.text(msgGenericError))
	}

	if res.Handled {
		msgs := []*etmessage.Outbound{r.text(promptText(res.Prompt, res.Attempt, s.sessions.MaxRetries()))}
		if res.Prompt == etsession.PromptVerified {
			msgs = append(msgs, r.mainMenu(res.Session.TechnicianName))
		}
		return s.send(ctx, msgs...)
	}

	sess := res.Session
	switch ev.Kind {
	case etmessage.KindInteractive:
		return s.handleReply(ctx, r, sess, ev)
	case etmessage.KindImage:
		return s.handleImage(ctx, r, sess, ev)
	case etmessage.KindText:
		if number := strings.TrimSpace(ev.Text); orderNumberPattern.MatchString(number) {
			return s.showOrderByNumber(ctx, r, sess, strings.ToUpper(number))
		}
	}
	return s.send(ctx, r.mainMenu(sess.TechnicianName))
}

// handleReply 按关联令牌路由：动作 > 菜单 > 订单详情
func (s *WorkflowService) handleReply(ctx context.Context, r renderer, sess *etsession.Session, ev *etmessage.InboundEvent) error {
	token, err := correlation.DecodeStrict(ev.ReplyID)
	if err != nil {
		s.logger.Warnf(ctx, "[WorkflowService] malformed reply token %q", ev.ReplyID)
		return s.send(ctx, r.text(msgUnprocessable), r.mainMenu(sess.TechnicianName))
	}
	key := token[correlation.KeyAction]

	if action, ok := etorder.ParseAction(key); ok {
		return s.handleTransition(ctx, r, sess, action, token)
	}

	if menu, ok := svorder.ParseMenu(key); ok {
		switch {
		case menu.IsListing():
			return s.showListing(ctx, r, sess, menu)
		case menu == svorder.MenuUploadDocument:
			return s.showUploadPrompt(ctx, r, sess, token)
		default:
			return s.verifyDocuments(ctx, r, sess, ev, token)
		}
	}

	if id := token[correlation.KeyRecordID]; id != "" && (key == "" || etorder.IsKnownStatus(key)) {
		return s.showOrder(ctx, r, sess, id, key)
	}
	if title := strings.TrimSpace(ev.ReplyTitle); orderNumberPattern.MatchString(title) {
		return s.showOrderByNumber(ctx, r, sess, strings.ToUpper(title))
	}

	return s.send(ctx, r.text(msgUnprocessable), r.mainMenu(sess.TechnicianName))
}

// handleTransition 执行动作并按结果回复
func (s *WorkflowService) handleTransition(ctx context.Context, r renderer, sess *etsession.Session, action etorder.Action, token map[string]string) error {
	out, err := s.orders.Transition(ctx, sess, action, token)

	var te *errorx.TransitionError
	var de *errorx.DocumentsError
	switch {
	case err == nil:
	case errors.As(err, &te):
		s.logger.Infof(ctx, "[WorkflowService] transition rejected: %v", te)
		return s.send(ctx, r.text(msgStaleAction), r.orderCard(out.Order, s.orders.AllowedActions(out.Order)))
	case errors.As(err, &de):
		s.logger.Infof(ctx, "[WorkflowService] completion blocked: %v", de)
		return s.send(ctx, r.documentPrompt(out.Order, s.orders.MissingDocuments(out.Order))...)
	case errors.Is(err, errorx.ErrMalformedCorrelationToken):
		return s.send(ctx, r.text(msgUnprocessable), r.mainMenu(sess.TechnicianName))
	default:
		s.logger.Errorf(ctx, "[WorkflowService] transition %s failed: %v", action, err)
		return s.send(ctx, r.text(msgUpdateFailed))
	}

	msgs := []*etmessage.Outbound{r.text(msgStatusUpdated)}
	switch out.Decision.To.Code {
	case etorder.CodeTechnicianRejected:
		msgs = append(msgs, r.text(msgOrderRejected))
	case etorder.CodeTechnicianWorkCompleted:
		msgs = append(msgs, r.text(msgOrderCompleted))
	default:
		msgs = append(msgs, r.orderCard(out.Order, s.orders.AllowedActions(out.Order)))
	}
	return s.send(ctx, msgs...)
}

func (s *WorkflowService) showListing(ctx context.Context, r renderer, sess *etsession.Session, menu svorder.Menu) error {
	sections, err := s.orders.ListSections(ctx, sess, menu)
	if err != nil {
		s.logger.Errorf(ctx, "[WorkflowService] list %s failed: %v", menu, err)
		return s.send(ctx, r.text(msgGenericError))
	}
	if len(sections) == 0 {
		if menu == svorder.MenuCompleted {
			return s.send(ctx, r.text(msgNoOrders))
		}
		return s.send(ctx, r.text(msgNoPending))
	}
	return s.send(ctx, r.listing(menu, sections))
}

// showOrder 展示订单详情，已完成订单只展示摘要
func (s *WorkflowService) showOrder(ctx context.Context, r renderer, sess *etsession.Session, recordID, statusKey string) error {
	order, err := s.orders.GetOrder(ctx, sess, recordID)
	if err != nil {
		s.logger.Errorf(ctx, "[WorkflowService] fetch order %s failed: %v", recordID, err)
		return s.send(ctx, r.text(msgGenericError))
	}
	return s.presentOrder(ctx, r, order, statusKey)
}

func (s *WorkflowService) showOrderByNumber(ctx context.Context, r renderer, sess *etsession.Session, number string) error {
	order, err := s.orders.FindByNumber(ctx, sess, number)
	if err != nil {
		if errors.Is(err, errorx.ErrOrderNotFound) {
			return s.send(ctx, r.text(fmt.Sprintf(msgOrderNotFound, number)))
		}
		s.logger.Errorf(ctx, "[WorkflowService] find order %s failed: %v", number, err)
		return s.send(ctx, r.text(msgGenericError))
	}
	return s.presentOrder(ctx, r, order, "")
}

func (s *WorkflowService) presentOrder(ctx context.Context, r renderer, order *etorder.Order, statusKey string) error {
	if order.IsCompleted() || statusKey == etorder.CodeTechnicianWorkCompleted {
		history, err := s.orders.History(ctx, order.OrderID, historyLimit)
		if err != nil {
			s.logger.Warnf(ctx, "[WorkflowService] load history for %s failed: %v", order.OrderID, err)
		}
		return s.send(ctx, r.orderSummary(order, history))
	}
	return s.send(ctx, r.orderCard(order, s.orders.AllowedActions(order)))
}

// showUploadPrompt 上传说明，令牌带订单时只列出缺失项
func (s *WorkflowService) showUploadPrompt(ctx context.Context, r renderer, sess *etsession.Session, token map[string]string) error {
	id := token[correlation.KeyRecordID]
	if id == "" {
		return s.send(ctx, r.documentPrompt(nil, nil)...)
	}
	order, err := s.orders.GetOrder(ctx, sess, id)
	if err != nil {
		s.logger.Warnf(ctx, "[WorkflowService] fetch order %s for upload prompt failed: %v", id, err)
		return s.send(ctx, r.documentPrompt(nil, nil)...)
	}
	missing := s.orders.MissingDocuments(order)
	if len(missing) == 0 {
		return s.send(ctx, r.text(fmt.Sprintf(msgDocumentsOK, order.OrderID)), r.orderCard(order, s.orders.AllowedActions(order)))
	}
	return s.send(ctx, r.documentPrompt(order, missing)...)
}

// verifyDocuments 核对订单文档；令牌不带订单时汇报本地已收到的图片数
func (s *WorkflowService) verifyDocuments(ctx context.Context, r renderer, sess *etsession.Session, ev *etmessage.InboundEvent, token map[string]string) error {
	id := token[correlation.KeyRecordID]
	if id == "" {
		files, err := s.store.List(ctx, ev.From)
		if err != nil {
			s.logger.Errorf(ctx, "[WorkflowService] list media failed: %v", err)
			return s.send(ctx, r.text(msgGenericError))
		}
		return s.send(ctx, r.text(fmt.Sprintf(msgUploadedCount, len(files))), r.mainMenu(sess.TechnicianName))
	}

	order, err := s.orders.GetOrder(ctx, sess, id)
	if err != nil {
		s.logger.Errorf(ctx, "[WorkflowService] fetch order %s failed: %v", id, err)
		return s.send(ctx, r.text(msgGenericError))
	}
	missing := s.orders.MissingDocuments(order)
	if len(missing) > 0 {
		return s.send(ctx, r.documentPrompt(order, missing)...)
	}
	return s.send(ctx, r.text(fmt.Sprintf(msgDocumentsOK, order.OrderID)), r.orderCard(order, s.orders.AllowedActions(order)))
}

// handleImage 按 caption 识别文档类型并保存图片
func (s *WorkflowService) handleImage(ctx context.Context, r renderer, sess *etsession.Session, ev *etmessage.InboundEvent) error {
	docType, ok := etdocument.TypeFromCaption(ev.Caption)
	if !ok {
		return s.send(ctx, r.text(msgInvalidCaption))
	}

	file, err := s.source.DownloadMedia(ctx, ev.MediaID)
	if err != nil {
		s.logger.Errorf(ctx, "[WorkflowService] download media %s failed: %v", ev.MediaID, err)
		return s.send(ctx, r.text(msgGenericError))
	}

	stored, err := s.store.Save(ctx, &media.File{
		Owner:    ev.From,
		MediaID:  file.ID,
		DocType:  docType.String(),
		MimeType: file.MimeType,
		Data:     file.Data,
	})
	if err != nil {
		s.logger.Errorf(ctx, "[WorkflowService] save media %s failed: %v", ev.MediaID, err)
		return s.send(ctx, r.text(msgGenericError))
	}

	s.logger.Infof(ctx, "[WorkflowService] document saved: type=%s path=%s technician=%s", docType, stored, sess.TechnicianID)
	return s.send(ctx, r.text(fmt.Sprintf(msgDocumentSaved, docType)))
}

func (s *WorkflowService) renderer(ev *etmessage.InboundEvent) renderer {
	return renderer{
		channelID: ev.ChannelID,
		to:        ev.From,
		botName:   s.opts.BotName,
		formURL:   s.opts.DocumentFormURL,
	}
}

// send 依次发送，单条失败不影响后续消息
func (s *WorkflowService) send(ctx context.Context, msgs ...*etmessage.Outbound) error {
	var errs []error
	for _, m := range msgs {
		if err := s.messenger.Send(ctx, m); err != nil {
			s.logger.Errorf(ctx, "[WorkflowService] send %s message failed: %v", m.Kind, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
