package markdown

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/media"
	"github.com/Seemerry/VideoCapsule/internal/models"
)

func videoRecord() *models.VideoRecord {
	record := &models.VideoRecord{
		Status:   models.Status{Success: true},
		Platform: models.PlatformBilibili,
		Content: models.Content{
			Title:    "测试视频",
			NoteType: models.NoteTypeVideo,
			Tag:      models.StringPtr("编程 、教程"),
		},
		AuthorInfo: models.AuthorInfo{Author: "UP主", AuthorID: "123"},
		Statistics: models.Statistics{
			LikeCount:    models.Int64Ptr(100),
			CommentCount: models.Int64Ptr(20),
		},
		VideoDetail: models.VideoDetail{
			Duration:   models.Int64Ptr(213000),
			VideoID:    "BV1xx411c7mD",
			CreateTime: models.Int64Ptr(1700000000),
		},
		URLs: models.URLs{
			VideoURL: "https://cdn/v.m4s",
			AudioURL: "https://cdn/a.m4s",
			CoverURL: "https://cdn/cover.jpg",
		},
	}
	record.Transcription = &models.Transcription{Text: "转录正文内容"}
	return record
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	return NewGenerator(&config.OutputConfig{Dir: t.TempDir()}, zap.NewNop())
}

func TestGenerate(t *testing.T) {
	g := newTestGenerator(t)

	path, err := g.Generate(videoRecord(), nil)

	require.NoError(t, err)
	assert.Equal(t, "测试视频_笔记.md", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "# 测试视频")
	assert.Contains(t, content, "UP主")
	assert.Contains(t, content, "03:33")
	assert.Contains(t, content, "编程 、教程")
	assert.Contains(t, content, "| 100 | 20 | 无数据 | 无数据 |")
	assert.Contains(t, content, "转录正文内容")
	// 占位符不应残留
	assert.NotContains(t, content, `"title"`)
	assert.NotContains(t, content, `"text"`)
}

func TestGenerate_FormattedTextWins(t *testing.T) {
	g := newTestGenerator(t)

	path, err := g.Generate(videoRecord(), &Extras{
		Summary:       "这是摘要",
		FormattedText: "格式化后的正文",
	})

	require.NoError(t, err)
	data, _ := os.ReadFile(path)
	content := string(data)

	assert.Contains(t, content, "格式化后的正文")
	assert.NotContains(t, content, "转录正文内容")
	assert.Contains(t, content, "## 摘要")
	assert.Contains(t, content, "这是摘要")
}

func TestGenerate_ExtrasSections(t *testing.T) {
	g := newTestGenerator(t)

	path, err := g.Generate(videoRecord(), &Extras{
		MindmapImagePath:  "测试视频_assets/mindmap.png",
		MindmapSourcePath: "测试视频_assets/mindmap.md",
		Frames: []media.Frame{
			{Label: "00:29", RelativePath: "测试视频_assets/frame_01_00m29s.jpg"},
		},
	})

	require.NoError(t, err)
	data, _ := os.ReadFile(path)
	content := string(data)

	assert.Contains(t, content, "## 思维导图")
	assert.Contains(t, content, "![思维导图](测试视频_assets/mindmap.png)")
	assert.Contains(t, content, "## 关键画面")
	assert.Contains(t, content, "frame_01_00m29s.jpg")
}

func TestGenerate_ImageNote(t *testing.T) {
	g := newTestGenerator(t)
	record := videoRecord()
	record.Content.NoteType = models.NoteTypeImage
	record.URLs.Images = []string{"https://img/1.jpg", "https://img/2.jpg"}

	path, err := g.Generate(record, nil)

	require.NoError(t, err)
	data, _ := os.ReadFile(path)
	content := string(data)

	assert.Contains(t, content, "## 图片")
	assert.Contains(t, content, "![图片1](https://img/1.jpg)")
	assert.Contains(t, content, "![图片2](https://img/2.jpg)")
}

func TestGenerate_FailedRecordRejected(t *testing.T) {
	g := newTestGenerator(t)

	_, err := g.Generate(models.NewFailedRecord("解析失败"), nil)

	assert.Error(t, err)
}

func TestGenerate_MissingFieldsUseDefaults(t *testing.T) {
	g := newTestGenerator(t)
	record := &models.VideoRecord{
		Status:  models.Status{Success: true},
		Content: models.Content{NoteType: models.NoteTypeVideo},
	}

	path, err := g.Generate(record, nil)

	require.NoError(t, err)
	assert.Equal(t, "未知标题_笔记.md", filepath.Base(path))

	data, _ := os.ReadFile(path)
	content := string(data)
	assert.Contains(t, content, "无转录内容")
	assert.Contains(t, content, "- 标签：无")
	assert.Contains(t, content, "- 时长：未知")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "未知", formatDuration(nil))
	assert.Equal(t, "00:45", formatDuration(models.Int64Ptr(45000)))
	assert.Equal(t, "03:33", formatDuration(models.Int64Ptr(213000)))
	assert.Equal(t, "01:01:05", formatDuration(models.Int64Ptr(3665000)))
}

func TestFormatTimestamp_MillisNormalized(t *testing.T) {
	sec := formatTimestamp(models.Int64Ptr(1700000000))
	ms := formatTimestamp(models.Int64Ptr(1700000000000))

	assert.Equal(t, sec, ms)
	assert.Equal(t, "未知", formatTimestamp(nil))
}

func TestNewGenerator_CustomTemplate(t *testing.T) {
	dir := t.TempDir()
	tplPath := filepath.Join(dir, "tpl.md")
	// 中文引号的占位符也要能命中
	require.NoError(t, os.WriteFile(tplPath, []byte("标题：“title”"), 0644))

	g := NewGenerator(&config.OutputConfig{Dir: dir, TemplatePath: tplPath}, zap.NewNop())
	path, err := g.Generate(videoRecord(), nil)

	require.NoError(t, err)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "标题：测试视频", string(data))
}

func TestNewGenerator_MissingTemplateFallsBack(t *testing.T) {
	g := NewGenerator(&config.OutputConfig{Dir: t.TempDir(), TemplatePath: "/no/such/tpl.md"}, zap.NewNop())

	path, err := g.Generate(videoRecord(), nil)

	require.NoError(t, err)
	data, _ := os.ReadFile(path)
	assert.Contains(t, string(data), "# 测试视频")
}
