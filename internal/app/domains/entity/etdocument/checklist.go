package etdocument

import "fmt"

// Requirements 订单类型与当前动作决定的文档要求
type Requirements struct {
	Corporate      bool
	SelfieRequired bool
	DualUnit       bool // 分体式设备（如分体空调）需要室外机文档
	PartReturn     bool
	PartPhotoCount int
}

// Rule 单条检查规则：某类型文档数量 >= Min
type Rule struct {
	Type Type
	Min  int
}

func (r Rule) String() string {
	if r.Min <= 1 {
		return r.Type.String()
	}
	return fmt.Sprintf("%s x%d", r.Type, r.Min)
}

// Checklist 返回适用的检查规则
func Checklist(req Requirements) []Rule {
	var rules []Rule
	if req.Corporate {
		rules = append(rules,
			Rule{Type: TypeSerialNumber, Min: 1},
			Rule{Type: TypeDevicePhoto, Min: 1},
		)
		if req.DualUnit {
			rules = append(rules,
				Rule{Type: TypeOuterSerialNumber, Min: 1},
				Rule{Type: TypeOuterDevicePhoto, Min: 1},
			)
		}
	} else {
		rules = append(rules,
			Rule{Type: TypeInvoice, Min: 1},
			Rule{Type: TypeSerialNumber, Min: 1},
			Rule{Type: TypeDevicePhoto, Min: 1},
		)
		if req.SelfieRequired {
			rules = append(rules, Rule{Type: TypeSelfie, Min: 1})
		}
	}

	if req.PartReturn {
		n := req.PartPhotoCount
		if n < 1 {
			n = 1
		}
		rules = append(rules, Rule{Type: TypeDefectivePart, Min: n})
	}
	return rules
}

// Count 按类型统计文档数量
func Count(docs []Document, corporate bool) map[Type]int {
	counts := make(map[Type]int)
	for _, d := range docs {
		counts[Resolve(d.TypeCode, corporate)]++
	}
	return counts
}

// Missing 返回未满足的规则
func Missing(docs []Document, req Requirements) []Rule {
	counts := Count(docs, req.Corporate)
	var missing []Rule
	for _, rule := range Checklist(req) {
		if counts[rule.Type] < rule.Min {
			missing = append(missing, rule)
		}
	}
	return missing
}

// IsComplete 所有规则同时满足才算完整，无文档时一定不完整
func IsComplete(docs []Document, req Requirements) bool {
	if len(docs) == 0 {
		return false
	}
	return len(Missing(docs, req)) == 0
}
