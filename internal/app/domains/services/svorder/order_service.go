package svorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"techbot/internal/app/domains/entity/etdocument"
	"techbot/internal/app/domains/entity/etorder"
	"techbot/internal/app/domains/entity/etsession"
	"techbot/internal/app/domains/modules/mdtransition"
	"techbot/internal/app/domains/repo/rpaudit"
	"techbot/internal/app/infra/backend"
	"techbot/internal/app/infra/persistence/redis"
	"techbot/internal/app/pkg/correlation"
	"techbot/internal/app/pkg/errorx"
	"techbot/internal/app/pkg/logger"
)

// OrderBackend 订单后端
type OrderBackend interface {
	GetOrder(ctx context.Context, token, recordID string) (*etorder.Order, error)
	ListOrders(ctx context.Context, token, statusCode, technicianID string, limit int) ([]*etorder.Order, error)
	FindByOrderNumber(ctx context.Context, token, orderNumber string) (*etorder.Order, error)
	UpdateStatus(ctx context.Context, token string, update *backend.StatusUpdate) (string, error)
}

// StatusPublisher 状态变更事件发布
type StatusPublisher interface {
	PublishStatus(ctx context.Context, event *redis.StatusEvent) error
}

// Outcome 一次流转请求的结果
// 被规则拒绝时 Order 仍为最新快照，用于重新展示可选操作
type Outcome struct {
	Order    *etorder.Order
	Decision *mdtransition.Decision
}

// OrderService 订单操作编排：拉取、流转、提交、审计、通知
type OrderService struct {
	backend   OrderBackend
	engine    *mdtransition.TransitionModule
	audit     rpaudit.AuditRepository
	events    StatusPublisher
	listLimit int
	logger    logger.Logger
	now       func() time.Time
}

// NewOrderService 创建订单服务实例，events 可为 nil
func NewOrderService(
	backend OrderBackend,
	engine *mdtransition.TransitionModule,
	audit rpaudit.AuditRepository,
	events StatusPublisher,
	listLimit int,
	log logger.Logger,
) *OrderService {
	if listLimit <= 0 {
		listLimit = 10
	}
	return &OrderService{
		backend:   backend,
		engine:    engine,
		audit:     audit,
		events:    events,
		listLimit: listLimit,
		logger:    log,
		now:       time.Now,
	}
}

// Transition 执行技师动作（完整业务流程）
// 1. 根据令牌定位订单并重新拉取（不信任令牌中的 currentStatus）
// 2. 流转引擎判定合法性与文档完整性
// 3. 提交状态变更到订单后端
// 4. 写审计记录、发布状态事件（失败只记录日志）
// 5. 非终态时重新拉取订单用于展示后续操作
func (s *OrderService) Transition(ctx context.Context, sess *etsession.Session, action etorder.Action, token map[string]string) (*Outcome, error) {
	order, err := s.locate(ctx, sess, token)
	if err != nil {
		return nil, err
	}

	if stale := token[correlation.KeyCurrentStatus]; stale != "" && stale != order.CurrentStatus.Code {
		s.logger.Infof(ctx, "[OrderService] stale token: order=%s token_status=%s current=%s", order.OrderID, stale, order.CurrentStatus.Code)
	}

	decision, err := s.engine.RequestTransition(action, order)
	if err != nil {
		return &Outcome{Order: order}, err
	}

	updatedID, err := s.backend.UpdateStatus(ctx, sess.AuthToken, &backend.StatusUpdate{
		OrderID:    order.OrderID,
		RecordID:   order.RecordID,
		LastStatus: decision.From.Code,
		Target:     decision.To,
		Actor: backend.Actor{
			ID:        sess.TechnicianID,
			FirstName: sess.TechnicianName,
			Mobile:    sess.Phone,
		},
	})
	if err != nil {
		return &Outcome{Order: order}, err
	}

	s.logger.Infof(ctx, "[OrderService] transition applied: order=%s %s -> %s", order.OrderID, decision.From.Code, decision.To.Code)
	s.record(ctx, sess, order, decision, token)

	outcome := &Outcome{Order: order, Decision: decision}
	if decision.Terminal {
		return outcome, nil
	}

	refreshed, err := s.backend.GetOrder(ctx, sess.AuthToken, updatedID)
	if err != nil {
		s.logger.Warnf(ctx, "[OrderService] refresh order failed: order=%s err=%v", order.OrderID, err)
		fallback := *order
		fallback.CurrentStatus = decision.To
		outcome.Order = &fallback
		return outcome, nil
	}
	outcome.Order = refreshed
	return outcome, nil
}

// locate 优先按记录 ID 拉取，缺失时按订单号查询
func (s *OrderService) locate(ctx context.Context, sess *etsession.Session, token map[string]string) (*etorder.Order, error) {
	if id := token[correlation.KeyRecordID]; id != "" {
		return s.backend.GetOrder(ctx, sess.AuthToken, id)
	}
	if number := token[correlation.KeyOrderID]; number != "" {
		return s.backend.FindByOrderNumber(ctx, sess.AuthToken, number)
	}
	return nil, fmt.Errorf("%w: token carries no order reference", errorx.ErrMalformedCorrelationToken)
}

func (s *OrderService) record(ctx context.Context, sess *etsession.Session, order *etorder.Order, d *mdtransition.Decision, token map[string]string) {
	rec := &etorder.TransitionRecord{
		OrderID:      order.OrderID,
		RecordID:     order.RecordID,
		Action:       d.Action,
		From:         d.From.Code,
		To:           d.To.Code,
		Terminal:     d.Terminal,
		TechnicianID: sess.TechnicianID,
		Sender:       sess.Identity,
		Token:        token,
		OccurredAt:   s.now(),
	}
	if s.audit != nil {
		if err := s.audit.Create(ctx, rec); err != nil {
			s.logger.Errorf(ctx, "[OrderService] write audit failed: order=%s err=%v", order.OrderID, err)
		}
	}
	if s.events != nil {
		err := s.events.PublishStatus(ctx, &redis.StatusEvent{
			OrderID:      rec.OrderID,
			RecordID:     rec.RecordID,
			From:         rec.From,
			To:           rec.To,
			Action:       string(rec.Action),
			TechnicianID: rec.TechnicianID,
			Terminal:     rec.Terminal,
			OccurredAt:   rec.OccurredAt,
		})
		if err != nil {
			s.logger.Warnf(ctx, "[OrderService] publish status event failed: order=%s err=%v", order.OrderID, err)
		}
	}
}

// GetOrder 按记录 ID 拉取订单
func (s *OrderService) GetOrder(ctx context.Context, sess *etsession.Session, recordID string) (*etorder.Order, error) {
	return s.backend.GetOrder(ctx, sess.AuthToken, recordID)
}

// FindByNumber 按订单号拉取订单
func (s *OrderService) FindByNumber(ctx context.Context, sess *etsession.Session, orderNumber string) (*etorder.Order, error) {
	return s.backend.FindByOrderNumber(ctx, sess.AuthToken, orderNumber)
}

// AllowedActions 订单当前可执行的动作
func (s *OrderService) AllowedActions(order *etorder.Order) []etorder.Action {
	return s.engine.AllowedActions(order.CurrentStatus)
}

// MissingDocuments 完工前仍缺失的文档
func (s *OrderService) MissingDocuments(order *etorder.Order) []etdocument.Rule {
	return s.engine.MissingDocuments(order)
}

// History 订单的流转审计记录
func (s *OrderService) History(ctx context.Context, orderID string, limit int) ([]*etorder.TransitionRecord, error) {
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.ListByOrder(ctx, orderID, limit)
}

// Section 订单列表分组
type Section struct {
	Title  string
	Orders []*etorder.Order
}

// ListSections 按菜单拉取分组订单列表，空分组被省略
// 任一分组拉取失败即返回错误
func (s *OrderService) ListSections(ctx context.Context, sess *etsession.Session, menu Menu) ([]Section, error) {
	groups, ok := menuSections[menu]
	if !ok {
		return nil, fmt.Errorf("unknown order menu %q", menu)
	}

	var sections []Section
	for _, g := range groups {
		orders, err := s.backend.ListOrders(ctx, sess.AuthToken, g.StatusCode, sess.TechnicianID, s.listLimit)
		if err != nil {
			if errors.Is(err, errorx.ErrOrderNotFound) {
				continue
			}
			return nil, err
		}
		if len(orders) > 0 {
			sections = append(sections, Section{Title: g.Title, Orders: orders})
		}
	}
	return sections, nil
}
