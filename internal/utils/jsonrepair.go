package utils

import (
	"encoding/json"
	"regexp"
)

var (
	undefinedLiteral = regexp.MustCompile(`\bundefined\b`)
	trailingCommaObj = regexp.MustCompile(`,\s*}`)
	trailingCommaArr = regexp.MustCompile(`,\s*]`)
)

// RepairJSLiteral 将页面内嵌的 JavaScript 对象字面量修复为严格 JSON。
// 最常见缺陷是 JSON 不允许的 undefined 字面量，其次是尾逗号
func RepairJSLiteral(raw string) string {
	repaired := undefinedLiteral.ReplaceAllString(raw, "null")
	repaired = trailingCommaObj.ReplaceAllString(repaired, "}")
	repaired = trailingCommaArr.ReplaceAllString(repaired, "]")
	return repaired
}

// ParseJSLiteral 修复并解析 JS 对象字面量，失败返回 nil
func ParseJSLiteral(raw string) map[string]interface{} {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err == nil {
		return data
	}

	repaired := RepairJSLiteral(raw)
	if err := json.Unmarshal([]byte(repaired), &data); err != nil {
		return nil
	}
	return data
}
