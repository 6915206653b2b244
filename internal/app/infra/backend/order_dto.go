package backend

import (
	"fmt"
	"time"

	"techbot/internal/app/domains/entity/etdocument"
	"techbot/internal/app/domains/entity/etorder"
)

// 订单后端 JSON 结构

type namedRef struct {
	Name string `json:"name"`
}

type orderStatusDTO struct {
	CurrentStatus string `json:"currentStatus"`
	State         string `json:"state"`
}

type documentDTO struct {
	Type *struct {
		Value *int `json:"value"`
	} `json:"type"`
}

type partDTO struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type orderDTO struct {
	ID               string         `json:"_id"`
	OrderID          string         `json:"orderId"`
	OrderStatus      orderStatusDTO `json:"orderStatus"`
	Category         *namedRef      `json:"category"`
	SubCategory      *namedRef      `json:"subCategory"`
	Brand            *namedRef      `json:"brand"`
	Warranty         string         `json:"warranty"`
	ServiceComment   string         `json:"serviceComment"`
	ServiceDateTime  string         `json:"serviceDateTime"`
	IsCorporate      bool           `json:"isCorporate"`
	IsPrimeBookOrder bool           `json:"isPrimeBookOrder"`
	IsAC             bool           `json:"isAc"`
	Documents        []documentDTO  `json:"documents"`
	Parts            []partDTO      `json:"parts"`
	User             *struct {
		FirstName string `json:"firstName"`
		Mobile    string `json:"mobile"`
	} `json:"user"`
	Address *struct {
		Address string `json:"address"`
		City    string `json:"city"`
	} `json:"address"`
	Pkg *struct {
		Issue string `json:"issue"`
	} `json:"pkg"`
}

type listPayload struct {
	Items []orderDTO `json:"items"`
}

// unknownDocumentCode 缺失类型码的文档归入默认分类
const unknownDocumentCode = -1

// toDomainModel 转换为领域订单快照
func (d *orderDTO) toDomainModel() (*etorder.Order, error) {
	status, err := etorder.StatusByCode(d.OrderStatus.CurrentStatus)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", d.OrderID, err)
	}

	order := &etorder.Order{
		RecordID:       d.ID,
		OrderID:        d.OrderID,
		CurrentStatus:  status,
		Warranty:       d.Warranty,
		ServiceComment: d.ServiceComment,
		Variant: etorder.Variant{
			Corporate:      d.IsCorporate,
			SelfieRequired: d.IsPrimeBookOrder,
			DualUnit:       d.IsAC,
		},
	}

	if d.Category != nil {
		order.Category = d.Category.Name
	}
	if d.SubCategory != nil {
		order.SubCategory = d.SubCategory.Name
	}
	if d.Brand != nil {
		order.Brand = d.Brand.Name
	}
	if d.User != nil {
		order.CustomerName = d.User.FirstName
		order.CustomerMobile = d.User.Mobile
	}
	if d.Address != nil {
		order.Address = d.Address.Address
		order.City = d.Address.City
	}
	if d.Pkg != nil {
		order.Issue = d.Pkg.Issue
	}
	if d.ServiceDateTime != "" {
		if ts, err := time.Parse(time.RFC3339, d.ServiceDateTime); err == nil {
			order.ServiceDateTime = ts
		}
	}

	order.Documents = make([]etdocument.Document, 0, len(d.Documents))
	for _, doc := range d.Documents {
		code := unknownDocumentCode
		if doc.Type != nil && doc.Type.Value != nil {
			code = *doc.Type.Value
		}
		order.Documents = append(order.Documents, etdocument.Document{TypeCode: code})
	}

	order.Parts = make([]etorder.Part, 0, len(d.Parts))
	for _, p := range d.Parts {
		order.Parts = append(order.Parts, etorder.Part{Name: p.Name, Quantity: p.Quantity})
	}

	return order, nil
}

// StatusUpdate 状态变更请求
type StatusUpdate struct {
	OrderID    string
	RecordID   string
	LastStatus string
	Target     etorder.Status
	Actor      Actor
}

// Actor 变更发起人（技师）
type Actor struct {
	ID        string
	FirstName string
	Mobile    string
}

// Provenance 状态变更来源
const Provenance = "technician"

type statusUpdateOrderDTO struct {
	OrderID string `json:"orderId"`
	ID      string `json:"_id"`
}

type statusUpdateUserDTO struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
}

type statusUpdateDTO struct {
	Order            statusUpdateOrderDTO `json:"order"`
	LastStatus       string               `json:"lastStatus"`
	CurrentStatus    string               `json:"currentStatus"`
	State            string               `json:"state"`
	StatusChangeFrom string               `json:"statusChangeFrom"`
	ChangeFrom       string               `json:"changeFrom"`
	User             statusUpdateUserDTO  `json:"user"`
}

func (u *StatusUpdate) toDTO() statusUpdateDTO {
	return statusUpdateDTO{
		Order:            statusUpdateOrderDTO{OrderID: u.OrderID, ID: u.RecordID},
		LastStatus:       u.LastStatus,
		CurrentStatus:    u.Target.Code,
		State:            u.Target.Label,
		StatusChangeFrom: Provenance,
		ChangeFrom:       Provenance,
		User: statusUpdateUserDTO{
			ID:        u.Actor.ID,
			FirstName: u.Actor.FirstName,
			Mobile:    u.Actor.Mobile,
		},
	}
}

type statusUpdateResult struct {
	ID    string `json:"_id"`
	Order *struct {
		ID string `json:"_id"`
	} `json:"order"`
}
