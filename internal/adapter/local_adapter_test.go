package adapter

import (
	"context"
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

func newLocalAdapter() *LocalAdapter {
	// ffprobe 指向不存在的二进制，时长探测按缺失处理
	prober := media.NewProber(&config.MediaConfig{FFprobePath: "ffprobe-not-installed"}, zap.NewNop())
	return NewLocalAdapter(prober, zap.NewNop())
}

func writeTempVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake video"), 0644))
	return path
}

func TestLocalParse(t *testing.T) {
	path := writeTempVideo(t, "我的视频.mp4")

	record, err := newLocalAdapter().Parse(context.Background(), path)

	require.NoError(t, err)
	require.True(t, record.Status.Success)
	assert.Equal(t, models.PlatformLocal, record.Platform)
	assert.Equal(t, "我的视频", record.Content.Title)
	assert.Equal(t, path, record.URLs.VideoURL)
	assert.Equal(t, path, record.URLs.AudioURL)
	assert.Equal(t, path, record.URLs.FinalURL)
	assert.Equal(t, "我的视频.mp4", record.VideoDetail.VideoID)
	assert.NotNil(t, record.VideoDetail.CreateTime)
	// ffprobe 不可用时时长留空
	assert.Nil(t, record.VideoDetail.Duration)
	// 本地文件无统计数据
	assert.Nil(t, record.Statistics.LikeCount)
}

func TestLocalParse_UnsupportedExtension(t *testing.T) {
	path := writeTempVideo(t, "文档.txt")

	record, err := newLocalAdapter().Parse(context.Background(), path)

	require.NoError(t, err)
	assert.False(t, record.Status.Success)
	assert.Contains(t, record.Status.Error, "不支持的视频格式")
}

func TestLocalParse_Missing(t *testing.T) {
	record, err := newLocalAdapter().Parse(context.Background(), "/no/such/video.mp4")

	require.NoError(t, err)
	assert.False(t, record.Status.Success)
	assert.Contains(t, record.Status.Error, "文件不存在")
}

func TestIsLocalVideoFile(t *testing.T) {
	path := writeTempVideo(t, "clip.MP4")

	assert.True(t, IsLocalVideoFile(path))
	assert.False(t, IsLocalVideoFile("https://example.com/clip.mp4"))
	assert.False(t, IsLocalVideoFile("/no/such/clip.mp4"))
	assert.False(t, IsLocalVideoFile(writeTempVideo(t, "readme.txt")))
}

func TestExtractTitleFromFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"普通文件名", "/tmp/记录生活.mp4", "记录生活"},
		{"分P序号", "/tmp/课程 - 1.第一讲.mp4", "课程第一讲"},
		{"AV号标注", "/tmp/教程(Av170001,P1).mp4", "教程"},
		{"结尾方括号", "/tmp/视频 [1080P].mp4", "视频"},
		{"括号前缀整段重复", "/tmp/【漫士】如何学习【漫士】如何学习.mp4", "【漫士】如何学习"},
		{"无分隔符整段重复", "/tmp/深度学习入门深度学习入门.mp4", "深度学习入门"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTitleFromFilename(tt.input))
		})
	}
}
