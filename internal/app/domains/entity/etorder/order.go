package etorder

import (
	"time"

	"techbot/internal/app/domains/entity/etdocument"
)

// Order 订单快照（只读，来自订单后端）
// 引擎只读取 CurrentStatus、Documents、Parts 与订单类型标记
type Order struct {
	RecordID      string // 后端记录 ID (_id)
	OrderID       string // 可读订单号，如 SRVZ-ORD-123456789
	CurrentStatus Status
	Documents     []etdocument.Document
	Parts         []Part
	Variant       Variant

	Category        string
	SubCategory     string
	Brand           string
	Warranty        string
	ServiceComment  string
	Issue           string
	ServiceDateTime time.Time
	CustomerName    string
	CustomerMobile  string
	Address         string
	City            string
}

// Part 配件申请
type Part struct {
	Name     string
	Quantity int
}

// Variant 订单类型标记
type Variant struct {
	Corporate      bool // 企业订单
	SelfieRequired bool // 需要技师自拍（PrimeBook 订单）
	DualUnit       bool // 分体式设备（如分体空调）
}

// HasParts 是否申请过配件
func (o *Order) HasParts() bool {
	return len(o.Parts) > 0
}

// PartQuantities 各配件数量
func (o *Order) PartQuantities() []int {
	out := make([]int, 0, len(o.Parts))
	for _, p := range o.Parts {
		out = append(out, p.Quantity)
	}
	return out
}

// DocumentRequirements 计算完工所需的文档要求
func (o *Order) DocumentRequirements(policy etdocument.PartPhotoPolicy) etdocument.Requirements {
	return etdocument.Requirements{
		Corporate:      o.Variant.Corporate,
		SelfieRequired: o.Variant.SelfieRequired,
		DualUnit:       o.Variant.DualUnit,
		PartReturn:     o.HasParts(),
		PartPhotoCount: policy.RequiredPartPhotos(o.PartQuantities()),
	}
}

// IsCompleted 订单是否已完工
func (o *Order) IsCompleted() bool {
	return o.CurrentStatus.Code == CodeTechnicianWorkCompleted
}
