package sections

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Props 区块的 config / styleConfig，所有字段都是可选的
// 读取时由渲染器提供默认值
type Props map[string]interface{}

// Has 键存在且非 null
func (p Props) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String 字符串值；数字和布尔会被转成字符串
func (p Props) String(key, def string) string {
	switch v := p[key].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	}
	return def
}

// Int 整数值，接受 JSON 数字和数字字符串
func (p Props) Int(key string, def int) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Float 浮点值
func (p Props) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if n, err := v.Float64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n
		}
	}
	return def
}

// Bool 布尔值，接受 "true"/"false" 字符串
func (p Props) Bool(key string, def bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// Map 嵌套对象，不存在时返回空 Props
func (p Props) Map(key string) Props {
	if m, ok := p[key].(map[string]interface{}); ok {
		return Props(m)
	}
	if m, ok := p[key].(Props); ok {
		return m
	}
	return Props{}
}

// Strings 字符串数组，非字符串元素跳过
func (p Props) Strings(key string) []string {
	raw, ok := p[key].([]interface{})
	if !ok {
		if ss, ok := p[key].([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Items 对象数组，非对象元素跳过
func (p Props) Items(key string) []Props {
	raw, ok := p[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Props, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, Props(m))
		}
	}
	return out
}

// cssLength 数字按 px 处理，字符串原样使用
func cssLength(v interface{}) (string, bool) {
	switch n := v.(type) {
	case float64:
		return fmt.Sprintf("%spx", strconv.FormatFloat(n, 'f', -1, 64)), true
	case int:
		return fmt.Sprintf("%dpx", n), true
	case string:
		if s := strings.TrimSpace(n); s != "" {
			return s, true
		}
	}
	return "", false
}
