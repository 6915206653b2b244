package etdocument

import "fmt"

// Type 文档类型（封闭枚举）
type Type int

const (
	TypeDefault Type = iota
	TypeInvoice
	TypeSerialNumber
	TypeDeviceVideo
	TypeDevicePhoto
	TypeOther
	TypeSelfie
	TypeDefectivePart
	TypeJobsheet
	TypeOuterSerialNumber
	TypeOuterDevicePhoto
)

var typeNames = map[Type]string{
	TypeDefault:           "Unknown",
	TypeInvoice:           "Invoice",
	TypeSerialNumber:      "Sr. #",
	TypeDeviceVideo:       "Device Video",
	TypeDevicePhoto:       "Device Photo",
	TypeOther:             "Other",
	TypeSelfie:            "Selfie of Technician",
	TypeDefectivePart:     "Defective Pickup",
	TypeJobsheet:          "Jobsheet",
	TypeOuterSerialNumber: "Outer Sr. #",
	TypeOuterDevicePhoto:  "Outer Device Photo",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// 后端文档类型码：普通订单与企业订单使用不同的编码表
var standardCodes = map[int]Type{
	0: TypeInvoice,
	1: TypeSerialNumber,
	2: TypeDeviceVideo,
	3: TypeDevicePhoto,
	4: TypeOther,
	5: TypeSelfie,
	6: TypeDefectivePart,
	7: TypeJobsheet,
}

var corporateCodes = map[int]Type{
	0: TypeSerialNumber,
	1: TypeDevicePhoto,
	2: TypeOuterSerialNumber,
	3: TypeOuterDevicePhoto,
	6: TypeDefectivePart,
	7: TypeJobsheet,
}

// Resolve 将后端类型码解析为文档类型，未知编码归入 TypeDefault
func Resolve(code int, corporate bool) Type {
	table := standardCodes
	if corporate {
		table = corporateCodes
	}
	if t, ok := table[code]; ok {
		return t
	}
	return TypeDefault
}

// Document 订单附带的文档记录
type Document struct {
	TypeCode int
}

// captionTypes 上传图片时 caption 与文档类型的对应关系
var captionTypes = map[string]Type{
	"invoice":   TypeInvoice,
	"serial":    TypeSerialNumber,
	"device":    TypeDevicePhoto,
	"selfie":    TypeSelfie,
	"defective": TypeDefectivePart,
}

// TypeFromCaption 根据图片 caption 识别文档类型
func TypeFromCaption(caption string) (Type, bool) {
	t, ok := captionTypes[caption]
	return t, ok
}
