package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFailedRecord(t *testing.T) {
	record := NewFailedRecord("网络请求失败")

	assert.False(t, record.Status.Success)
	assert.Equal(t, "网络请求失败", record.Status.Error)
}

func TestIsImageNote(t *testing.T) {
	record := &VideoRecord{}
	assert.False(t, record.IsImageNote())

	record.Content.NoteType = NoteTypeVideo
	assert.False(t, record.IsImageNote())

	record.Content.NoteType = NoteTypeImage
	assert.True(t, record.IsImageNote())
}

func TestVideoRecordJSON(t *testing.T) {
	record := &VideoRecord{
		Status:   Status{Success: true},
		Platform: PlatformDouyin,
		Content:  Content{Title: "标题"},
		Statistics: Statistics{
			LikeCount: Int64Ptr(10),
		},
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	// 统计字段 nil 序列化为 null，与 0 有区分
	assert.Contains(t, string(data), `"comment_count":null`)
	assert.Contains(t, string(data), `"like_count":10`)
	// 未转录时整个 transcription 字段省略
	assert.NotContains(t, string(data), "transcription")

	var back VideoRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, record.Content.Title, back.Content.Title)
	assert.Nil(t, back.Statistics.CommentCount)
}
