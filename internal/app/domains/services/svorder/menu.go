package svorder

import "techbot/internal/app/domains/entity/etorder"

// Menu 主菜单与文档入口的令牌取值
type Menu string

const (
	MenuPending        Menu = "pendingOrders"
	MenuWIP            Menu = "wipOrders"
	MenuCompleted      Menu = "completedOrders"
	MenuUploadDocument Menu = "uploadDocument"
	MenuVerifyDocument Menu = "verifyDocument"
)

// ParseMenu 解析菜单键
func ParseMenu(s string) (Menu, bool) {
	switch m := Menu(s); m {
	case MenuPending, MenuWIP, MenuCompleted, MenuUploadDocument, MenuVerifyDocument:
		return m, true
	}
	return "", false
}

// IsListing 是否为订单列表菜单
func (m Menu) IsListing() bool {
	_, ok := menuSections[m]
	return ok
}

// Title 菜单展示名称
func (m Menu) Title() string {
	switch m {
	case MenuPending:
		return "Pending Orders"
	case MenuWIP:
		return "WIP Orders"
	case MenuCompleted:
		return "Completed Orders"
	case MenuUploadDocument:
		return "Upload Document"
	case MenuVerifyDocument:
		return "Verify Documents"
	}
	return string(m)
}

type sectionGroup struct {
	Title      string
	StatusCode string
}

var menuSections = map[Menu][]sectionGroup{
	MenuPending: {
		{Title: "Assigned Orders", StatusCode: etorder.CodeTechnicianAssigned},
		{Title: "Reassigned Orders", StatusCode: etorder.CodeTechnicianReassigned},
		{Title: "Accepted Orders", StatusCode: etorder.CodeTechnicianAccepted},
	},
	MenuWIP: {
		{Title: "Work in Progress", StatusCode: etorder.CodeTechnicianWorking},
		{Title: "Reached Location", StatusCode: etorder.CodeTechnicianOnLocation},
		{Title: "Part Pending", StatusCode: etorder.CodePartsApprovalPending},
		{Title: "Part Handover to Technician", StatusCode: etorder.CodePartsHandoverToTechnician},
		{Title: "Defective Pickup", StatusCode: etorder.CodeDefectivePickup},
	},
	MenuCompleted: {
		{Title: "Completed Orders", StatusCode: etorder.CodeTechnicianWorkCompleted},
	},
}
