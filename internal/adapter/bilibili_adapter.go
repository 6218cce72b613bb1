package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/browser"
	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/resolver"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

const bilibiliAPIBase = "https://api.bilibili.com"

var bvidPattern = regexp.MustCompile(`BV[a-zA-Z0-9]+`)

// BilibiliAdapter Bilibili平台适配器。
// 纯 REST 策略：视频信息与播放地址各一次调用，不依赖浏览器。
// 播放地址为 DASH 分流格式，音视频是两个独立URL，下游需分别获取
type BilibiliAdapter struct {
	client   *http.Client
	resolver *resolver.Resolver
	apiBase  string
	logger   *zap.Logger
}

// NewBilibiliAdapter 创建Bilibili适配器。apiBase 为空时使用官方基址
func NewBilibiliAdapter(timeout time.Duration, res *resolver.Resolver, apiBase string, logger *zap.Logger) *BilibiliAdapter {
	if apiBase == "" {
		apiBase = bilibiliAPIBase
	}
	return &BilibiliAdapter{
		client:   &http.Client{Timeout: timeout},
		resolver: res,
		apiBase:  apiBase,
		logger:   logger,
	}
}

// 每次调用都必须携带的固定请求头，缺失会被上游拒绝
func bilibiliHeaders() map[string]string {
	return map[string]string{
		"User-Agent": browser.UserAgent,
		"Referer":    "https://www.bilibili.com",
	}
}

// biliViewResponse 视频信息API响应
type biliViewResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Bvid     string `json:"bvid"`
		Cid      int64  `json:"cid"`
		Title    string `json:"title"`
		Desc     string `json:"desc"`
		Pic      string `json:"pic"`
		Duration int64  `json:"duration"` // 秒
		Pubdate  int64  `json:"pubdate"`
		Owner    struct {
			Mid  int64  `json:"mid"`
			Name string `json:"name"`
		} `json:"owner"`
		Stat struct {
			Like     int64 `json:"like"`
			Reply    int64 `json:"reply"`
			Share    int64 `json:"share"`
			Favorite int64 `json:"favorite"`
		} `json:"stat"`
		Music *struct {
			Title  string `json:"title"`
			Name   string `json:"name"`
			Author string `json:"author"`
			UpName string `json:"up_name"`
		} `json:"music"`
	} `json:"data"`
}

// biliPlayResponse 播放地址API响应。DASH 字段存在新旧两种命名
type biliPlayResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Dash struct {
			Video []biliDashStream `json:"video"`
			Audio []biliDashStream `json:"audio"`
		} `json:"dash"`
		Durl []struct {
			URL string `json:"url"`
		} `json:"durl"`
	} `json:"data"`
}

type biliDashStream struct {
	BaseURL      string `json:"baseUrl"`
	BaseURLSnake string `json:"base_url"`
}

func (s *biliDashStream) url() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return s.BaseURLSnake
}

// Parse 解析Bilibili视频链接
func (a *BilibiliAdapter) Parse(ctx context.Context, rawURL string) (*models.VideoRecord, error) {
	bvid, err := a.extractBvid(ctx, rawURL)
	if err != nil {
		return models.NewFailedRecord(fmt.Sprintf("无法从链接中提取BV号: %v", err)), nil
	}

	view, err := a.fetchView(ctx, bvid)
	if err != nil {
		return models.NewFailedRecord(fmt.Sprintf("网络请求失败: %v", err)), nil
	}
	if view.Code != 0 {
		return models.NewFailedRecord(fmt.Sprintf("API错误: %s", view.Message)), nil
	}

	record := a.mapView(view)

	// 播放地址获取失败不影响基本信息
	if view.Data.Cid != 0 {
		if play, err := a.fetchPlayURL(ctx, bvid, view.Data.Cid); err == nil && play.Code == 0 {
			a.fillStreamURLs(record, play)
		} else if err != nil {
			a.logger.Warn("playurl fetch failed", zap.String("bvid", bvid), zap.Error(err))
		}
	}

	return record, nil
}

// extractBvid 提取BV号，b23.tv 短链先走一跳重定向。
// 只取一跳是有意的：失效短链会被重定向到通用错误页，不能盲目跟到底
func (a *BilibiliAdapter) extractBvid(ctx context.Context, rawURL string) (string, error) {
	if strings.Contains(rawURL, "b23.tv") {
		resolved, err := a.resolver.ResolveOneHop(ctx, rawURL, bilibiliHeaders())
		if err != nil {
			return "", err
		}
		rawURL = resolved
	}

	bvid := bvidPattern.FindString(rawURL)
	if bvid == "" {
		return "", utils.ErrInvalidURL
	}
	return bvid, nil
}

func (a *BilibiliAdapter) fetchView(ctx context.Context, bvid string) (*biliViewResponse, error) {
	endpoint := fmt.Sprintf("%s/x/web-interface/view?bvid=%s", a.apiBase, url.QueryEscape(bvid))

	var view biliViewResponse
	if err := a.getJSON(ctx, endpoint, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (a *BilibiliAdapter) fetchPlayURL(ctx context.Context, bvid string, cid int64) (*biliPlayResponse, error) {
	params := url.Values{}
	params.Set("bvid", bvid)
	params.Set("cid", strconv.FormatInt(cid, 10))
	params.Set("qn", "16")
	params.Set("fnver", "0")
	params.Set("fnval", "16") // 启用DASH格式
	params.Set("fourk", "0")
	endpoint := fmt.Sprintf("%s/x/player/playurl?%s", a.apiBase, params.Encode())

	var play biliPlayResponse
	if err := a.getJSON(ctx, endpoint, &play); err != nil {
		return nil, err
	}
	return &play, nil
}

func (a *BilibiliAdapter) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	for k, v := range bilibiliHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (a *BilibiliAdapter) mapView(view *biliViewResponse) *models.VideoRecord {
	data := &view.Data

	record := &models.VideoRecord{
		Status:   models.Status{Success: true},
		Platform: models.PlatformBilibili,
		Content: models.Content{
			Title:    data.Title,
			Desc:     data.Desc,
			NoteType: models.NoteTypeVideo,
		},
		AuthorInfo: models.AuthorInfo{
			Author:   data.Owner.Name,
			AuthorID: strconv.FormatInt(data.Owner.Mid, 10),
		},
		Statistics: models.Statistics{
			LikeCount:    models.Int64Ptr(data.Stat.Like),
			CommentCount: models.Int64Ptr(data.Stat.Reply),
			ShareCount:   models.Int64Ptr(data.Stat.Share),
			CollectCount: models.Int64Ptr(data.Stat.Favorite),
		},
		VideoDetail: models.VideoDetail{
			Duration:   models.Int64Ptr(data.Duration * 1000), // 秒转毫秒
			VideoID:    data.Bvid,
			CreateTime: models.Int64Ptr(data.Pubdate),
		},
		URLs: models.URLs{
			CoverURL: data.Pic,
			FinalURL: fmt.Sprintf("https://www.bilibili.com/video/%s/", data.Bvid),
		},
	}

	if m := data.Music; m != nil {
		name := m.Title
		if name == "" {
			name = m.Name
		}
		author := m.Author
		if author == "" {
			author = m.UpName
		}
		switch {
		case name != "" && author != "":
			record.MusicInfo.Music = name + " - " + author
		case name != "":
			record.MusicInfo.Music = name
		case author != "":
			record.MusicInfo.Music = author
		}
	}

	return record
}

// fillStreamURLs 填充播放地址。DASH 命中时音视频为两个独立流，
// 保持分离不做合并；只有旧版 DURL 单流格式才让 audio 等于 video
func (a *BilibiliAdapter) fillStreamURLs(record *models.VideoRecord, play *biliPlayResponse) {
	dash := &play.Data.Dash
	if len(dash.Video) > 0 {
		record.URLs.VideoURL = dash.Video[0].url()
	}
	if len(dash.Audio) > 0 {
		record.URLs.AudioURL = dash.Audio[0].url()
	}

	if record.URLs.VideoURL == "" && len(play.Data.Durl) > 0 {
		record.URLs.VideoURL = play.Data.Durl[0].URL
		record.URLs.AudioURL = play.Data.Durl[0].URL
	}
}
