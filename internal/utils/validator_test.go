package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("https://www.bilibili.com/video/BV1xx411c7mD"))
	assert.True(t, IsValidURL("http://b23.tv/abc"))
	assert.False(t, IsValidURL(""))
	assert.False(t, IsValidURL("ftp://example.com/file"))
	assert.False(t, IsValidURL("/local/path/video.mp4"))
	assert.False(t, IsValidURL("not a url"))
}

func TestNormalizeURL_StripsTracking(t *testing.T) {
	got := NormalizeURL("https://v.douyin.com/abc/?utm_source=share&utm_medium=ios")
	assert.NotContains(t, got, "utm_source")
	assert.NotContains(t, got, "utm_medium")
}

func TestNormalizeURL_KeepsAuthParams(t *testing.T) {
	got := NormalizeURL("https://www.xiaohongshu.com/explore/abc?xsec_token=XYZ&utm_source=share")
	assert.Contains(t, got, "xsec_token=XYZ")
	assert.NotContains(t, got, "utm_source")
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "a b c", SanitizeString("  a \t b \n c  "))
	assert.Equal(t, "", SanitizeString("   "))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename(`a/b:c`))
	assert.Equal(t, "视频标题", SanitizeFilename(" 视频标题. "))

	long := make([]rune, 0, 150)
	for i := 0; i < 150; i++ {
		long = append(long, '字')
	}
	assert.Len(t, []rune(SanitizeFilename(string(long))), 100)
}
