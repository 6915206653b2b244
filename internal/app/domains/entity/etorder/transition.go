package etorder

// Action 技师触发的动作
type Action string

// 动作的线上编码（与按钮关联令牌中的 orderStatus 字段一致）
const (
	ActionAccept                 Action = "acceptOrder"
	ActionReject                 Action = "rejectOrder"
	ActionMarkReachedLocation    Action = "technicianReachedLocation"
	ActionMarkWorking            Action = "technicianWIP"
	ActionRequestPart            Action = "makePartRequest"
	ActionRequestAnotherPart     Action = "makeAnotherPartRequest"
	ActionRequestDefectivePickup Action = "makeDefectivePickup"
	ActionMarkComplete           Action = "makeMarkComplete"
)

var actionTargets = map[Action]string{
	ActionAccept:                 CodeTechnicianAccepted,
	ActionReject:                 CodeTechnicianRejected,
	ActionMarkReachedLocation:    CodeTechnicianOnLocation,
	ActionMarkWorking:            CodeTechnicianWorking,
	ActionRequestPart:            CodePartsApprovalPending,
	ActionRequestAnotherPart:     CodePartsApprovalPending,
	ActionRequestDefectivePickup: CodeDefectivePickup,
	ActionMarkComplete:           CodeTechnicianWorkCompleted,
}

var actionTitles = map[Action]string{
	ActionAccept:                 "Accept Order",
	ActionReject:                 "Reject Order",
	ActionMarkReachedLocation:    "Reached Location",
	ActionMarkWorking:            "Start Work",
	ActionRequestPart:            "Request Part",
	ActionRequestAnotherPart:     "Request Another Part",
	ActionRequestDefectivePickup: "Defective Pickup",
	ActionMarkComplete:           "Mark Work Complete",
}

// legalActions 当前状态 -> 合法动作（有序，决定按钮顺序）
var legalActions = map[string][]Action{
	CodeTechnicianAssigned:   {ActionAccept, ActionReject},
	CodeTechnicianReassigned: {ActionAccept, ActionReject},
	CodeTechnicianAccepted:   {ActionMarkReachedLocation},
	CodeTechnicianOnLocation: {ActionMarkWorking},
	CodeTechnicianWorking:    {ActionRequestPart, ActionRequestDefectivePickup, ActionMarkComplete},
	CodePartsApprovalPending: {ActionRequestAnotherPart, ActionRequestDefectivePickup},
	CodeDefectivePickup:      {ActionRequestPart, ActionMarkComplete},
}

// terminalCodes 进入后本流程不再提供任何操作
var terminalCodes = map[string]bool{
	CodeTechnicianRejected:      true,
	CodeTechnicianWorkCompleted: true,
}

// ParseAction 解析动作编码
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	_, ok := actionTargets[a]
	return a, ok
}

// Title 按钮文案
func (a Action) Title() string {
	return actionTitles[a]
}

// Target 动作对应的目标状态
func (a Action) Target() (Status, error) {
	code, ok := actionTargets[a]
	if !ok {
		return StatusByCode(string(a))
	}
	return StatusByCode(code)
}

// RequiresDocuments 动作是否受文档完整性约束
func (a Action) RequiresDocuments() bool {
	return a == ActionMarkComplete
}

// LegalActions 返回状态下合法动作的副本
func LegalActions(code string) []Action {
	actions := legalActions[code]
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// IsLegal 判断动作在当前状态下是否合法
func IsLegal(code string, action Action) bool {
	for _, a := range legalActions[code] {
		if a == action {
			return true
		}
	}
	return false
}

// IsTerminal 目标状态是否为终态
func IsTerminal(code string) bool {
	return terminalCodes[code]
}
