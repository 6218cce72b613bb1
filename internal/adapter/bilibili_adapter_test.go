package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/resolver"
)

const biliViewBody = `{
	"code": 0,
	"message": "0",
	"data": {
		"bvid": "BV1xx411c7mD",
		"cid": 9440,
		"title": "测试视频 #编程",
		"desc": "视频简介",
		"pic": "http://i0.hdslb.com/bfs/archive/cover.jpg",
		"duration": 213,
		"pubdate": 1700000000,
		"owner": {"mid": 12345, "name": "UP主"},
		"stat": {"like": 100, "reply": 20, "share": 5, "favorite": 30},
		"music": {"title": "背景音乐", "author": "歌手"}
	}
}`

func newBiliTestServer(t *testing.T, playBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/x/web-interface/view", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BV1xx411c7mD", r.URL.Query().Get("bvid"))
		assert.Equal(t, "https://www.bilibili.com", r.Header.Get("Referer"))
		fmt.Fprint(w, biliViewBody)
	})
	mux.HandleFunc("/x/player/playurl", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9440", r.URL.Query().Get("cid"))
		fmt.Fprint(w, playBody)
	})
	return httptest.NewServer(mux)
}

func newBiliAdapter(apiBase string) *BilibiliAdapter {
	res := resolver.New(5*time.Second, zap.NewNop())
	return NewBilibiliAdapter(5*time.Second, res, apiBase, zap.NewNop())
}

func TestBilibiliParse_DashStreams(t *testing.T) {
	playBody := `{
		"code": 0,
		"data": {
			"dash": {
				"video": [{"baseUrl": "https://cdn.bilivideo.com/v.m4s"}],
				"audio": [{"base_url": "https://cdn.bilivideo.com/a.m4s"}]
			}
		}
	}`
	srv := newBiliTestServer(t, playBody)
	defer srv.Close()

	record, err := newBiliAdapter(srv.URL).Parse(context.Background(), "https://www.bilibili.com/video/BV1xx411c7mD")

	require.NoError(t, err)
	require.True(t, record.Status.Success)
	assert.Equal(t, models.PlatformBilibili, record.Platform)
	assert.Equal(t, "测试视频 #编程", record.Content.Title)
	assert.Equal(t, "UP主", record.AuthorInfo.Author)
	assert.Equal(t, "12345", record.AuthorInfo.AuthorID)
	assert.Equal(t, int64(100), *record.Statistics.LikeCount)
	assert.Equal(t, int64(20), *record.Statistics.CommentCount)
	assert.Equal(t, int64(213000), *record.VideoDetail.Duration)
	assert.Equal(t, "BV1xx411c7mD", record.VideoDetail.VideoID)
	assert.Equal(t, "背景音乐 - 歌手", record.MusicInfo.Music)
	assert.Equal(t, "https://www.bilibili.com/video/BV1xx411c7mD/", record.URLs.FinalURL)

	// DASH 音视频分流，不应相等
	assert.Equal(t, "https://cdn.bilivideo.com/v.m4s", record.URLs.VideoURL)
	assert.Equal(t, "https://cdn.bilivideo.com/a.m4s", record.URLs.AudioURL)
}

func TestBilibiliParse_DurlFallback(t *testing.T) {
	playBody := `{
		"code": 0,
		"data": {
			"dash": {"video": [], "audio": []},
			"durl": [{"url": "https://cdn.bilivideo.com/single.flv"}]
		}
	}`
	srv := newBiliTestServer(t, playBody)
	defer srv.Close()

	record, err := newBiliAdapter(srv.URL).Parse(context.Background(), "BV1xx411c7mD")

	require.NoError(t, err)
	require.True(t, record.Status.Success)
	assert.Equal(t, "https://cdn.bilivideo.com/single.flv", record.URLs.VideoURL)
	assert.Equal(t, record.URLs.VideoURL, record.URLs.AudioURL)
}

func TestBilibiliParse_PlayURLFailureKeepsInfo(t *testing.T) {
	playBody := `{"code": -404, "message": "啥都木有"}`
	srv := newBiliTestServer(t, playBody)
	defer srv.Close()

	record, err := newBiliAdapter(srv.URL).Parse(context.Background(), "https://www.bilibili.com/video/BV1xx411c7mD")

	require.NoError(t, err)
	require.True(t, record.Status.Success)
	assert.Equal(t, "测试视频 #编程", record.Content.Title)
	assert.Empty(t, record.URLs.VideoURL)
}

func TestBilibiliParse_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/x/web-interface/view", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": -400, "message": "请求错误"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	record, err := newBiliAdapter(srv.URL).Parse(context.Background(), "https://www.bilibili.com/video/BV1xx411c7mD")

	require.NoError(t, err)
	assert.False(t, record.Status.Success)
	assert.Contains(t, record.Status.Error, "请求错误")
}

func TestBilibiliParse_InvalidURL(t *testing.T) {
	record, err := newBiliAdapter("http://127.0.0.1:0").Parse(context.Background(), "https://www.bilibili.com/video/av12345")

	require.NoError(t, err)
	assert.False(t, record.Status.Success)
	assert.Contains(t, record.Status.Error, "BV号")
}
