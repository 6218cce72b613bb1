package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/resolver"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

func newXhsAdapter() *XiaohongshuAdapter {
	res := resolver.New(5*time.Second, zap.NewNop())
	return NewXiaohongshuAdapter(5*time.Second, res, zap.NewNop())
}

func TestExtractXhsNoteID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://www.xiaohongshu.com/explore/64f0a1b2c3?xsec_token=ABC", "64f0a1b2c3"},
		{"https://www.xiaohongshu.com/discovery/item/64f0a1b2c3", "64f0a1b2c3"},
		{"https://www.xiaohongshu.com/note/64f0a1b2c3", "64f0a1b2c3"},
		{"https://www.xiaohongshu.com/user/profile/abc", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractXhsNoteID(tt.input), tt.input)
	}
}

func TestExtractXhsInitialState(t *testing.T) {
	html := `<html><body>
<script>window.__INITIAL_STATE__={"note":{"noteDetailMap":{"abc":{"note":{"title":"标题","video":undefined}}}}}</script>
</body></html>`

	state := extractXhsInitialState(html)

	require.NotNil(t, state)
	assert.NotNil(t, state["note"])
}

func TestExtractXhsInitialState_Missing(t *testing.T) {
	assert.Nil(t, extractXhsInitialState("<html><body>no state</body></html>"))
}

func TestExtractFromNoteCard_VideoNote(t *testing.T) {
	card := utils.ParseJSLiteral(`{
		"type": "video",
		"noteId": "note123",
		"title": "美食探店",
		"desc": "今天吃什么",
		"time": 1700000000000,
		"user": {"nickname": "小红薯", "userId": "u789"},
		"interactInfo": {"likedCount": "1.2万", "commentCount": "88", "shareCount": "10", "collectedCount": "200"},
		"tagList": [{"name": "美食"}, {"name": "探店"}],
		"video": {
			"duration": 45000,
			"media": {"stream": {"h264": [{"masterUrl": "https://sns-video-bd.xhscdn.com/v.mp4"}]}},
			"image": {"url": "https://sns-img.xhscdn.com/cover.jpg"}
		},
		"music": {"name": "轻音乐"}
	}`)
	require.NotNil(t, card)

	record := newXhsAdapter().extractFromNoteCard(card, "note123")

	require.True(t, record.Status.Success)
	assert.Equal(t, models.NoteTypeVideo, record.Content.NoteType)
	assert.Equal(t, "美食探店", record.Content.Title)
	assert.Equal(t, "小红薯", record.AuthorInfo.Author)
	assert.Equal(t, int64(12000), *record.Statistics.LikeCount)
	assert.Equal(t, int64(88), *record.Statistics.CommentCount)
	assert.Equal(t, "https://sns-video-bd.xhscdn.com/v.mp4", record.URLs.VideoURL)
	assert.Equal(t, record.URLs.VideoURL, record.URLs.AudioURL)
	assert.Equal(t, int64(45000), *record.VideoDetail.Duration)
	assert.Equal(t, "note123", record.VideoDetail.VideoID)
	// 毫秒时间戳归一为秒
	assert.Equal(t, int64(1700000000), *record.VideoDetail.CreateTime)
	require.NotNil(t, record.Content.Tag)
	assert.Equal(t, "美食 、探店", *record.Content.Tag)
	assert.Equal(t, "轻音乐", record.MusicInfo.Music)
}

func TestExtractFromNoteCard_ImageNote(t *testing.T) {
	card := utils.ParseJSLiteral(`{
		"type": "normal",
		"title": "",
		"desc": "图文笔记第一行\n第二行",
		"imageList": [
			{"infoList": [{"url": "https://img.xhscdn.com/low.jpg"}, {"url": "https://img.xhscdn.com/1.jpg"}]},
			{"urlDefault": "https://img.xhscdn.com/2.jpg"}
		]
	}`)
	require.NotNil(t, card)

	record := newXhsAdapter().extractFromNoteCard(card, "note456")

	require.True(t, record.Status.Success)
	assert.Equal(t, models.NoteTypeImage, record.Content.NoteType)
	assert.True(t, record.IsImageNote())
	// 无标题时取 desc 首行
	assert.Equal(t, "图文笔记第一行", record.Content.Title)
	require.Len(t, record.URLs.Images, 2)
	// infoList 取末项（质量最高）
	assert.Equal(t, "https://img.xhscdn.com/1.jpg", record.URLs.Images[0])
	assert.Equal(t, "https://img.xhscdn.com/2.jpg", record.URLs.Images[1])
	assert.Equal(t, record.URLs.Images[0], record.URLs.CoverURL)
	assert.Empty(t, record.URLs.VideoURL)
}

func TestExtractFromState_UndefinedRepaired(t *testing.T) {
	html := `<script>window.__INITIAL_STATE__={"note":{"noteDetailMap":{"n1":{"note":{"type":"video","title":"修复测试","video":{"url":"https://v.xhscdn.com/a.mp4"},"cover":undefined}}}}}</script>`

	state := extractXhsInitialState(html)
	require.NotNil(t, state)

	record := newXhsAdapter().extractFromState(state, "n1")

	require.NotNil(t, record)
	assert.Equal(t, "修复测试", record.Content.Title)
	assert.Equal(t, "https://v.xhscdn.com/a.mp4", record.URLs.VideoURL)
}

func TestExtractFromMeta_Video(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="笔记标题 - 小红书">
<meta property="og:description" content="描述">
<meta property="og:image" content="https://img.xhscdn.com/cover.jpg">
<meta property="og:video" content="https://v.xhscdn.com/stream.mp4">
</head></html>`

	record := newXhsAdapter().extractFromMeta(html, "n1")

	require.True(t, record.Status.Success)
	assert.Equal(t, "笔记标题", record.Content.Title)
	assert.Equal(t, models.NoteTypeVideo, record.Content.NoteType)
	assert.Equal(t, "https://v.xhscdn.com/stream.mp4", record.URLs.VideoURL)
	assert.Equal(t, record.URLs.VideoURL, record.URLs.AudioURL)
	assert.Equal(t, "n1", record.VideoDetail.VideoID)
}

func TestExtractFromMeta_Empty(t *testing.T) {
	record := newXhsAdapter().extractFromMeta("<html><head></head></html>", "n1")

	assert.False(t, record.Status.Success)
	assert.NotEmpty(t, record.Status.Error)
}

func TestPickImageURL(t *testing.T) {
	img := utils.ParseJSLiteral(`{"infoList": [{"url": "low"}, {"url": "high"}], "url": "direct"}`)
	require.NotNil(t, img)
	assert.Equal(t, "high", pickImageURL(img))

	img2 := utils.ParseJSLiteral(`{"url": "direct"}`)
	require.NotNil(t, img2)
	assert.Equal(t, "direct", pickImageURL(img2))
}
