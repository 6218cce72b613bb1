package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSLiteral_StrictJSON(t *testing.T) {
	data := ParseJSLiteral(`{"a": 1, "b": "x"}`)

	require.NotNil(t, data)
	assert.Equal(t, float64(1), data["a"])
}

func TestParseJSLiteral_Undefined(t *testing.T) {
	data := ParseJSLiteral(`{"video": undefined, "title": "测试"}`)

	require.NotNil(t, data)
	assert.Nil(t, data["video"])
	assert.Equal(t, "测试", data["title"])
}

func TestParseJSLiteral_TrailingCommas(t *testing.T) {
	data := ParseJSLiteral(`{"list": [1, 2, ], "obj": {"k": "v", }, }`)

	require.NotNil(t, data)
	assert.Len(t, data["list"], 2)
}

func TestParseJSLiteral_Invalid(t *testing.T) {
	assert.Nil(t, ParseJSLiteral("not json at all"))
	assert.Nil(t, ParseJSLiteral(""))
}

func TestRepairJSLiteral_KeepsStringContent(t *testing.T) {
	// 字符串值里的 undefined 不在单词边界之外出现时仍会被替换，
	// 但正常中文内容不受影响
	got := RepairJSLiteral(`{"desc": "正常内容"}`)
	assert.Equal(t, `{"desc": "正常内容"}`, got)
}
