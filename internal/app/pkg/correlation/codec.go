package correlation

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"techbot/internal/app/pkg/errorx"
)

const (
	pairSep = "|"
	kvSep   = ":"
)

// 约定的字段名
const (
	KeyAction        = "orderStatus"
	KeyOrderID       = "orderId"
	KeyRecordID      = "id"
	KeyCurrentStatus = "currentStatus"
)

// Field 单个键值对，Value 为 nil 时编码时忽略
type Field struct {
	Key   string
	Value any
}

// Fields 有序键值对
type Fields []Field

// Encode 编码为 key:value|key:value 形式，value 做 URI 组件编码
// key 必须是普通标识符，不做编码；为空或包含 ":"、"|" 的 key 会被跳过
// value 为 nil（含 typed nil 指针）时该字段不输出
func Encode(fields Fields) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if !validKey(f.Key) {
			continue
		}
		value, ok := stringify(f.Value)
		if !ok {
			continue
		}
		parts = append(parts, f.Key+kvSep+encodeComponent(value))
	}
	return strings.Join(parts, pairSep)
}

// EncodeMap 按 key 排序后编码，结果稳定
func EncodeMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(Fields, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: m[k]})
	}
	return Encode(fields)
}

// Decode 解码。缺少分隔符或 key 为空的片段直接跳过，不报错
func Decode(token string) map[string]string {
	out := make(map[string]string)
	if token == "" {
		return out
	}

	for _, segment := range strings.Split(token, pairSep) {
		key, raw, ok := strings.Cut(segment, kvSep)
		if !ok || key == "" {
			continue
		}
		value, err := url.PathUnescape(raw)
		if err != nil {
			value = raw
		}
		out[key] = value
	}
	return out
}

// DecodeStrict 解码，没有任何可用字段时返回 ErrMalformedCorrelationToken
func DecodeStrict(token string) (map[string]string, error) {
	fields := Decode(token)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q", errorx.ErrMalformedCorrelationToken, token)
	}
	return fields, nil
}

func validKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, kvSep+pairSep)
}

// stringify 返回 false 表示值为空
func stringify(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return "", false
		}
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), true
	}
	if rv.Kind() == reflect.Pointer {
		return stringify(rv.Elem().Interface())
	}

	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// encodeComponent 与 JavaScript encodeURIComponent 保持一致
func encodeComponent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
