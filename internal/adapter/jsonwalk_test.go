package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seemerry/VideoCapsule/internal/utils"
)

func TestJSONWalkHelpers(t *testing.T) {
	m := utils.ParseJSLiteral(`{
		"interact_info": {"liked_count": "100"},
		"tag_list": [{"name": "a"}],
		"note_id": "n1",
		"empty": "",
		"count": 42,
		"nothing": null
	}`)
	require.NotNil(t, m)

	// 多候选键按序取首个命中
	assert.NotNil(t, getMap(m, "interactInfo", "interact_info"))
	assert.Nil(t, getMap(m, "missing"))
	assert.Nil(t, getMap(m, "note_id")) // 类型不符

	assert.Len(t, getSlice(m, "tagList", "tag_list"), 1)
	assert.Nil(t, getSlice(m, "note_id"))

	assert.Equal(t, "n1", getString(m, "noteId", "note_id"))
	// 空串视为未命中，继续尝试后续键
	assert.Equal(t, "n1", getString(m, "empty", "note_id"))
	assert.Empty(t, getString(m, "missing"))

	n, ok := getNumber(m, "count")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)
	_, ok = getNumber(m, "note_id")
	assert.False(t, ok)

	assert.Equal(t, "n1", getValue(m, "nothing", "note_id"))
	assert.Nil(t, getValue(m, "missing"))

	assert.NotNil(t, asMap(m["interact_info"]))
	assert.Nil(t, asMap("string"))
	assert.Nil(t, asMap(nil))
}
