package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seemerry/VideoCapsule/internal/utils"
)

func TestExtractKuaishouPhotoID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://www.kuaishou.com/short-video/3xf8abc_D-e", "3xf8abc_D-e"},
		{"https://www.kuaishou.com/f/X7abc123", "X7abc123"},
		{"https://www.kuaishou.com/profile/xyz?photoId=3xq999", "3xq999"},
		{"https://v.kuaishou.com/photo/3xphoto1", "3xphoto1"},
		{"https://www.kuaishou.com/profile/xyz", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractKuaishouPhotoID(tt.input), tt.input)
	}
}

func TestExtractCommentCount(t *testing.T) {
	bodies := []string{
		"not json",
		`{"data": {"visionShortVideoReco": {"feeds": []}}}`,
		`{"data": {"visionCommentList": {"commentCount": 66, "rootComments": []}}}`,
	}

	count := extractCommentCount(bodies)

	require.NotNil(t, count)
	assert.Equal(t, int64(66), *count)

	assert.Nil(t, extractCommentCount(nil))
	assert.Nil(t, extractCommentCount([]string{`{"data": {}}`}))
}

const kuaishouDetailJSON = `{
	"status": 1,
	"author": {"id": "u123", "name": "快手用户"},
	"photo": {
		"id": "3xf8abc",
		"caption": "测试视频 #快手",
		"duration": 15000,
		"realLikeCount": 1024,
		"viewCount": "3.5万",
		"coverUrl": "https://p1.ksimg.com/cover.jpg",
		"photoUrl": "https://v1.ksvideo.com/low.mp4",
		"timestamp": 1700000000000,
		"manifest": {
			"adaptationSet": [{
				"representation": [
					{"url": "https://v1.ksvideo.com/720.mp4", "width": 720},
					{"url": "https://v1.ksvideo.com/1080.mp4", "width": 1080}
				]
			}]
		}
	},
	"tags": [{"name": "搞笑"}, {"name": "日常"}]
}`

func TestExtractKuaishouDetail(t *testing.T) {
	detail := utils.ParseJSLiteral(kuaishouDetailJSON)
	require.NotNil(t, detail)

	record := extractKuaishouDetail(detail)

	require.NotNil(t, record)
	require.True(t, record.Status.Success)
	assert.Equal(t, "测试视频 #快手", record.Content.Title)
	assert.Equal(t, "快手用户", record.AuthorInfo.Author)
	assert.Equal(t, "u123", record.AuthorInfo.AuthorID)
	assert.Equal(t, int64(1024), *record.Statistics.LikeCount)
	// 播放数顶替分享数，万缩写也要解析
	assert.Equal(t, int64(35000), *record.Statistics.ShareCount)
	assert.Equal(t, "3xf8abc", record.VideoDetail.VideoID)
	assert.Equal(t, int64(1700000000), *record.VideoDetail.CreateTime)
	assert.Equal(t, int64(15000), *record.VideoDetail.Duration)
	// manifest 里更宽的流优先于 photoUrl
	assert.Equal(t, "https://v1.ksvideo.com/1080.mp4", record.URLs.VideoURL)
	assert.Equal(t, record.URLs.VideoURL, record.URLs.AudioURL)
	require.NotNil(t, record.Content.Tag)
	assert.Equal(t, "搞笑 、日常", *record.Content.Tag)
}

func TestExtractKuaishouDetail_NoPhoto(t *testing.T) {
	detail := utils.ParseJSLiteral(`{"status": 0}`)
	require.NotNil(t, detail)

	assert.Nil(t, extractKuaishouDetail(detail))
}

func TestFindInRecoFeeds(t *testing.T) {
	bodies := []string{
		`{"data": {"visionShortVideoReco": {"feeds": [
			{"author": {"name": "别人"}, "photo": {"id": "other", "caption": "无关视频"}},
			{"author": {"name": "目标作者"}, "photo": {"id": "3xf8abc", "caption": "目标视频", "photoUrl": "https://v1.ksvideo.com/t.mp4"}}
		]}}}`,
	}

	record := findInRecoFeeds(bodies, "3xf8abc")

	require.NotNil(t, record)
	assert.Equal(t, "目标视频", record.Content.Title)
	assert.Equal(t, "目标作者", record.AuthorInfo.Author)

	assert.Nil(t, findInRecoFeeds(bodies, "missing"))
	assert.Nil(t, findInRecoFeeds(nil, "3xf8abc"))
}

func TestBestManifestURL(t *testing.T) {
	manifest := utils.ParseJSLiteral(`{
		"adaptationSet": [{
			"representation": [
				{"url": "https://v/480.mp4", "width": 480},
				{"url": "https://v/1080.mp4", "width": 1080},
				{"url": "https://v/720.mp4", "width": 720}
			]
		}]
	}`)
	require.NotNil(t, manifest)

	assert.Equal(t, "https://v/1080.mp4", bestManifestURL(manifest))
	assert.Empty(t, bestManifestURL(nil))
}
