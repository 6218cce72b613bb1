package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var wanPattern = regexp.MustCompile(`^([\d.]+)\s*万$`)

// ParseCount 解析统计数字。平台可能返回 "1.2万" 这类缩写形式，
// 也可能是普通数字字符串；畸形输入返回 nil，从不报错
func ParseCount(value string) *int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n < 0 {
			return nil
		}
		return &n
	}

	if m := wanPattern.FindStringSubmatch(value); m != nil {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		n := int64(f * 10000)
		return &n
	}

	return nil
}

// ParseCountValue 解析 interface{} 形式的计数值（JSON 反序列化产物）
func ParseCountValue(value interface{}) *int64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		n := int64(v)
		if n < 0 {
			return nil
		}
		return &n
	case int64:
		if v < 0 {
			return nil
		}
		return &v
	case int:
		n := int64(v)
		if n < 0 {
			return nil
		}
		return &n
	case string:
		return ParseCount(v)
	default:
		return nil
	}
}
