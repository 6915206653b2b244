package etorder

import (
	"fmt"

	"techbot/internal/app/pkg/errorx"
)

// Status 订单状态（值对象）
// Label 为展示名称，Code 为后端使用的状态码
type Status struct {
	Label string
	Code  string
}

// 状态码
const (
	CodeSCWorkInProgress          = "sc_wip"
	CodeCart                      = "add_to_cart"
	CodeTechnicianAssigned        = "technician_assigned"
	CodeTechnicianAccepted        = "technician_accepted"
	CodeSCReassigned              = "sc_reassigned"
	CodeSCAssigned                = "sc_assigned"
	CodeTechnicianRejected        = "technician_rejected"
	CodeCancelledByCustomer       = "order_cancelled_by_customer"
	CodeTechnicianReassigned      = "technician_reassigned"
	CodeOrderPlaced               = "order_placed"
	CodeOrderResolved             = "sc_order_resolved"
	CodeRefundSent                = "refund_sent"
	CodePartsApproved             = "parts_approved"
	CodeRefundInitiated           = "refund_initiated"
	CodeTechnicianOnLocation      = "technician_on_location"
	CodePartsApprovalPending      = "parts_approval_pending"
	CodeTechnicianWorking         = "technician_working"
	CodeRefundReceived            = "refund_received"
	CodeOrderScheduled            = "order_scheduled"
	CodeSCRejected                = "sc_rejected"
	CodeTechnicianWorkCompleted   = "technician_work_completed"
	CodeGeneral                   = "general"
	CodePartsDispatched           = "parts_dispatched"
	CodePartsOnTheWay             = "parts_on_the_way"
	CodePartDelivered             = "part_delivered"
	CodePartsHandoverToTechnician = "parts_handover_to_technician"
	CodeDefectivePickup           = "defective_pickup"
)

var catalog = []Status{
	{Label: "Service Center WIP", Code: CodeSCWorkInProgress},
	{Label: "Cart", Code: CodeCart},
	{Label: "Assign Technician", Code: CodeTechnicianAssigned},
	{Label: "Technician Accepted", Code: CodeTechnicianAccepted},
	{Label: "Service Center Reassigned", Code: CodeSCReassigned},
	{Label: "Service Center Assigned", Code: CodeSCAssigned},
	{Label: "Technician Rejected", Code: CodeTechnicianRejected},
	{Label: "Order Cancelled by Customer", Code: CodeCancelledByCustomer},
	{Label: "Technician Reassigned", Code: CodeTechnicianReassigned},
	{Label: "Order Placed", Code: CodeOrderPlaced},
	{Label: "Order Resolved", Code: CodeOrderResolved},
	{Label: "Refund Sent", Code: CodeRefundSent},
	{Label: "Parts approved", Code: CodePartsApproved},
	{Label: "Refund Initiated", Code: CodeRefundInitiated},
	{Label: "Technician reached the location", Code: CodeTechnicianOnLocation},
	{Label: "Parts Request", Code: CodePartsApprovalPending},
	{Label: "Technician WIP", Code: CodeTechnicianWorking},
	{Label: "Refund Received by Customer", Code: CodeRefundReceived},
	{Label: "Order Scheduled", Code: CodeOrderScheduled},
	{Label: "Service Centre rejected", Code: CodeSCRejected},
	{Label: "Work Completed", Code: CodeTechnicianWorkCompleted},
	{Label: "General/Info.", Code: CodeGeneral},
	{Label: "Part Dispatched", Code: CodePartsDispatched},
	{Label: "Part On the Way", Code: CodePartsOnTheWay},
	{Label: "Part Delivered", Code: CodePartDelivered},
	{Label: "Parts Handover to Technician", Code: CodePartsHandoverToTechnician},
	{Label: "Defective Parts Pickup", Code: CodeDefectivePickup},
}

var (
	byCode  map[string]Status
	byLabel map[string]Status
)

func init() {
	byCode = make(map[string]Status, len(catalog))
	byLabel = make(map[string]Status, len(catalog))
	for _, s := range catalog {
		if _, dup := byCode[s.Code]; dup {
			panic(fmt.Sprintf("etorder: duplicate status code %q", s.Code))
		}
		if _, dup := byLabel[s.Label]; dup {
			panic(fmt.Sprintf("etorder: duplicate status label %q", s.Label))
		}
		byCode[s.Code] = s
		byLabel[s.Label] = s
	}
}

// StatusByCode 根据状态码查找，不存在时返回 ErrUnknownStatusCode
func StatusByCode(code string) (Status, error) {
	s, ok := byCode[code]
	if !ok {
		return Status{}, fmt.Errorf("%w: %q", errorx.ErrUnknownStatusCode, code)
	}
	return s, nil
}

// StatusByLabel 根据展示名称查找，不存在时返回 ErrUnknownStatusLabel
func StatusByLabel(label string) (Status, error) {
	s, ok := byLabel[label]
	if !ok {
		return Status{}, fmt.Errorf("%w: %q", errorx.ErrUnknownStatusLabel, label)
	}
	return s, nil
}

// IsKnownStatus 判断状态码是否在目录中
func IsKnownStatus(code string) bool {
	_, ok := byCode[code]
	return ok
}

// AllStatuses 返回目录副本
func AllStatuses() []Status {
	out := make([]Status, len(catalog))
	copy(out, catalog)
	return out
}
