package mdtransition

import (
	"fmt"

	"techbot/internal/app/domains/entity/etdocument"
	"techbot/internal/app/domains/entity/etorder"
	"techbot/internal/app/pkg/errorx"
)

// Decision 合法的状态流转结果
// Terminal 为 true 时本流程不再为该订单提供任何操作
type Decision struct {
	Action   etorder.Action
	From     etorder.Status
	To       etorder.Status
	Terminal bool
}

// TransitionModule 订单状态流转引擎（纯逻辑，不做 IO）
// 调用方负责提供刚从后端拉取的订单快照，并负责持久化结果
type TransitionModule struct {
	partPhotoPolicy etdocument.PartPhotoPolicy
}

// NewTransitionModule 创建流转引擎
func NewTransitionModule(policy etdocument.PartPhotoPolicy) *TransitionModule {
	if policy == "" {
		policy = etdocument.PartPhotoSingle
	}
	return &TransitionModule{partPhotoPolicy: policy}
}

// RequestTransition 判断动作是否合法并返回目标状态
// 非法动作返回 *errorx.TransitionError，文档不全返回 *errorx.DocumentsError
func (m *TransitionModule) RequestTransition(action etorder.Action, order *etorder.Order) (*Decision, error) {
	if order == nil {
		return nil, fmt.Errorf("%w: missing order snapshot", errorx.ErrOrderBackendFailure)
	}

	current := order.CurrentStatus
	if !etorder.IsLegal(current.Code, action) {
		return nil, &errorx.TransitionError{
			Action:  string(action),
			Current: current.Code,
			Allowed: actionStrings(etorder.LegalActions(current.Code)),
		}
	}

	target, err := action.Target()
	if err != nil {
		return nil, err
	}

	if action.RequiresDocuments() {
		if missing := m.MissingDocuments(order); len(missing) > 0 {
			return nil, &errorx.DocumentsError{Missing: ruleNames(missing)}
		}
	}

	return &Decision{
		Action:   action,
		From:     current,
		To:       target,
		Terminal: etorder.IsTerminal(target.Code),
	}, nil
}

// AllowedActions 订单当前状态下可展示的动作
func (m *TransitionModule) AllowedActions(status etorder.Status) []etorder.Action {
	return etorder.LegalActions(status.Code)
}

// MissingDocuments 完工前缺失的文档
func (m *TransitionModule) MissingDocuments(order *etorder.Order) []etdocument.Rule {
	return etdocument.Missing(order.Documents, order.DocumentRequirements(m.partPhotoPolicy))
}

func actionStrings(actions []etorder.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, string(a))
	}
	return out
}

func ruleNames(rules []etdocument.Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.String())
	}
	return out
}
