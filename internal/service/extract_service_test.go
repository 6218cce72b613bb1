package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/models"
)

func newTestService(t *testing.T) *ExtractService {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Output.Dir = t.TempDir()
	return NewExtractService(cfg, zap.NewNop())
}

func TestExtract_UnknownPlatform(t *testing.T) {
	s := newTestService(t)

	record := s.Extract(context.Background(), "https://example.com/watch?v=abc", Options{})

	assert.False(t, record.Status.Success)
	assert.Equal(t, models.PlatformUnknown, record.Platform)
	assert.Contains(t, record.Status.Error, "无法识别")
}

func TestExtract_NoURLInShareText(t *testing.T) {
	s := newTestService(t)

	record := s.Extract(context.Background(), "快来看 douyin.com 上的精彩视频", Options{})

	assert.False(t, record.Status.Success)
	assert.Equal(t, models.PlatformDouyin, record.Platform)
	assert.Contains(t, record.Status.Error, "有效的视频链接")
}

func TestExtract_DisabledPlatform(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Platforms["bilibili"] = config.PlatformConfig{Enabled: false}
	s := NewExtractService(cfg, zap.NewNop())

	record := s.Extract(context.Background(), "BV1xx411c7mD", Options{})

	assert.False(t, record.Status.Success)
	assert.Contains(t, record.Status.Error, "平台未启用")
}

func TestGenerateNote_FailedRecordRejected(t *testing.T) {
	s := newTestService(t)

	_, err := s.GenerateNote(context.Background(), models.NewFailedRecord("解析失败"))
	assert.Error(t, err)

	_, err = s.GenerateNote(context.Background(), nil)
	assert.Error(t, err)
}

func TestSplitTitleTag(t *testing.T) {
	s := newTestService(t)

	record := &models.VideoRecord{
		Status:  models.Status{Success: true},
		Content: models.Content{Title: "记录生活 #日常 #vlog"},
	}
	s.splitTitleTag(record, models.PlatformDouyin)

	assert.Equal(t, "记录生活", record.Content.Title)
	require.NotNil(t, record.Content.Tag)
	assert.Equal(t, "日常 、vlog", *record.Content.Tag)
}

func TestSplitTitleTag_ExistingTagKept(t *testing.T) {
	s := newTestService(t)

	record := &models.VideoRecord{
		Status: models.Status{Success: true},
		Content: models.Content{
			Title: "标题 #话题",
			Tag:   models.StringPtr("结构化标签"),
		},
	}
	s.splitTitleTag(record, models.PlatformKuaishou)

	// 适配器已给出标签时标题不再拆分
	assert.Equal(t, "标题 #话题", record.Content.Title)
	assert.Equal(t, "结构化标签", *record.Content.Tag)
}

func TestSplitTitleTag_BracketsOnlyForXiaohongshu(t *testing.T) {
	s := newTestService(t)

	record := &models.VideoRecord{
		Status:  models.Status{Success: true},
		Content: models.Content{Title: "好物[种草]"},
	}
	s.splitTitleTag(record, models.PlatformDouyin)
	assert.Nil(t, record.Content.Tag)

	record.Content.Title = "好物[种草]"
	s.splitTitleTag(record, models.PlatformXiaohongshu)
	require.NotNil(t, record.Content.Tag)
	assert.Equal(t, "种草", *record.Content.Tag)
}

func TestRunTranscription_NoAudioURL(t *testing.T) {
	s := newTestService(t)

	record := &models.VideoRecord{Status: models.Status{Success: true}}
	s.runTranscription(context.Background(), record, Options{Model: "doubao"})

	// 转录失败不翻转解析状态
	assert.True(t, record.Status.Success)
	assert.NotEmpty(t, record.Status.TranscriptionError)
	assert.Nil(t, record.Transcription)
}

func TestRunTranscription_UnknownModel(t *testing.T) {
	s := newTestService(t)

	record := &models.VideoRecord{
		Status: models.Status{Success: true},
		URLs:   models.URLs{AudioURL: "https://example.com/a.mp3"},
	}
	s.runTranscription(context.Background(), record, Options{Model: "whisper"})

	assert.True(t, record.Status.Success)
	assert.Contains(t, record.Status.TranscriptionError, "unknown transcribe model")
}
