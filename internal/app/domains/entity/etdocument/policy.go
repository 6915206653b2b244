package etdocument

import "fmt"

// PartPhotoPolicy 配件退回照片数量策略
type PartPhotoPolicy string

const (
	// PartPhotoSingle 无论配件数量，一张旧件照片即可
	PartPhotoSingle PartPhotoPolicy = "single"
	// PartPhotoPerPart 每个配件一张
	PartPhotoPerPart PartPhotoPolicy = "per_part"
)

// ParsePartPhotoPolicy 解析配置值，空值取 single
func ParsePartPhotoPolicy(s string) (PartPhotoPolicy, error) {
	switch PartPhotoPolicy(s) {
	case "", PartPhotoSingle:
		return PartPhotoSingle, nil
	case PartPhotoPerPart:
		return PartPhotoPerPart, nil
	default:
		return "", fmt.Errorf("unknown part photo policy %q", s)
	}
}

// RequiredPartPhotos 根据配件数量计算需要的旧件照片数
func (p PartPhotoPolicy) RequiredPartPhotos(quantities []int) int {
	if len(quantities) == 0 {
		return 0
	}
	if p != PartPhotoPerPart {
		return 1
	}
	total := 0
	for _, q := range quantities {
		if q < 1 {
			q = 1
		}
		total += q
	}
	return total
}
