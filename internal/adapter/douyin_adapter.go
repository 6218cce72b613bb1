package adapter

import (
	"context"
	"encoding/json"
	stdhtml "html"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/browser"
	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

var (
	douyinRenderData   = regexp.MustCompile(`(?s)<script id="RENDER_DATA" type="application/json">(.+?)</script>`)
	douyinInitialState = regexp.MustCompile(`(?s)<script>window\.__INITIAL_STATE__\s*=\s*(\{.+?\});?</script>`)
	douyinTitleSuffix  = regexp.MustCompile(`\s*-\s*抖音.*$`)
)

// DouyinAdapter 抖音平台适配器。
// 浏览器自动化策略：导航到短链后，按严格递减的完整度依次尝试——
// 拦截到的 aweme detail API 响应、页面内嵌状态对象、og meta 标签。
// 取第一个非空成功结果并记录产出层级；meta 层命中时报告部分成功而非整体失败
type DouyinAdapter struct {
	browser *browser.Browser
	settle  time.Duration
	logger  *zap.Logger
}

// NewDouyinAdapter 创建抖音适配器
func NewDouyinAdapter(b *browser.Browser, settle time.Duration, logger *zap.Logger) *DouyinAdapter {
	return &DouyinAdapter{browser: b, settle: settle, logger: logger}
}

// douyinCapture 导航期间捕获到的网络数据
type douyinCapture struct {
	mu        sync.Mutex
	apiBodies []string
	videoURLs []string
}

func (c *douyinCapture) addBody(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiBodies = append(c.apiBodies, body)
}

func (c *douyinCapture) addVideoURL(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videoURLs = append(c.videoURLs, u)
}

func (c *douyinCapture) snapshot() ([]string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.apiBodies...), append([]string(nil), c.videoURLs...)
}

// Parse 解析抖音短链
func (a *DouyinAdapter) Parse(ctx context.Context, rawURL string) (*models.VideoRecord, error) {
	bctx, cancel := a.browser.NewContext(ctx)
	defer cancel()

	bctx, cancelTimeout := context.WithTimeout(bctx, a.browser.NavTimeout())
	defer cancelTimeout()

	capture := &douyinCapture{}
	a.installListeners(bctx, capture)

	var finalURL, html string
	err := chromedp.Run(bctx,
		network.Enable(),
		chromedp.Navigate(rawURL),
		chromedp.Sleep(a.settle),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if bctx.Err() == context.DeadlineExceeded {
			return models.NewFailedRecord("页面加载超时"), nil
		}
		return models.NewFailedRecord("解析异常: " + err.Error()), nil
	}

	apiBodies, videoURLs := capture.snapshot()

	// 回退链按完整度严格递减排列，fold 取第一个非空成功
	tiers := []struct {
		name string
		run  func() *models.VideoRecord
	}{
		{"api_intercept", func() *models.VideoRecord { return a.fromAPIBodies(apiBodies) }},
		{"embedded_state", func() *models.VideoRecord { return a.fromEmbeddedState(html) }},
		{"meta_tags", func() *models.VideoRecord { return a.fromMetaTags(html) }},
	}

	for _, tier := range tiers {
		record := tier.run()
		if record == nil || !record.Status.Success {
			continue
		}
		a.logger.Info("douyin parse succeeded",
			zap.String("tier", tier.name),
			zap.String("final_url", finalURL))

		record.Platform = models.PlatformDouyin
		record.URLs.FinalURL = finalURL
		// 网络层捕获的播放地址比页面数据更可靠，缺失时补入
		if record.URLs.VideoURL == "" && len(videoURLs) > 0 {
			record.URLs.VideoURL = videoURLs[0]
		}
		if record.Content.NoteType == "" {
			record.Content.NoteType = models.NoteTypeVideo
		}
		return record, nil
	}

	return models.NewFailedRecord("无法从页面中提取视频数据"), nil
}

// installListeners 注册网络事件监听：aweme detail API 响应体与视频流地址。
// 响应体要等 LoadingFinished 之后才保证可读
func (a *DouyinAdapter) installListeners(bctx context.Context, capture *douyinCapture) {
	var mu sync.Mutex
	pending := make(map[network.RequestID]bool)

	chromedp.ListenTarget(bctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			u := e.Request.URL
			if (strings.Contains(u, ".mp4") || strings.Contains(u, "douyinvod")) && strings.Contains(u, "temp=") {
				capture.addVideoURL(u)
			}
		case *network.EventResponseReceived:
			if strings.Contains(e.Response.URL, "/aweme/v1/web/aweme/detail") {
				mu.Lock()
				pending[e.RequestID] = true
				mu.Unlock()
			}
		case *network.EventLoadingFinished:
			mu.Lock()
			ok := pending[e.RequestID]
			delete(pending, e.RequestID)
			mu.Unlock()
			if !ok {
				return
			}
			reqID := e.RequestID
			go func() {
				c := chromedp.FromContext(bctx)
				body, err := network.GetResponseBody(reqID).Do(cdp.WithExecutor(bctx, c.Target))
				if err != nil {
					a.logger.Debug("api body fetch failed", zap.Error(err))
					return
				}
				capture.addBody(string(body))
			}()
		}
	})
}

// fromAPIBodies 第一层：拦截到的 detail API 响应
func (a *DouyinAdapter) fromAPIBodies(bodies []string) *models.VideoRecord {
	for _, body := range bodies {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(body), &data); err != nil {
			continue
		}
		if aweme := findAwemeNode(data, 0); aweme != nil {
			return a.extractFromAweme(aweme)
		}
	}
	return nil
}

// fromEmbeddedState 第二层：页面内嵌的客户端状态对象
func (a *DouyinAdapter) fromEmbeddedState(html string) *models.VideoRecord {
	var raw string
	if m := douyinRenderData.FindStringSubmatch(html); m != nil {
		raw = strings.TrimSpace(m[1])
		// RENDER_DATA 是百分号编码后的 JSON
		if decoded, err := url.QueryUnescape(raw); err == nil {
			raw = decoded
		}
	} else if m := douyinInitialState.FindStringSubmatch(html); m != nil {
		raw = stdhtml.UnescapeString(strings.TrimSpace(m[1]))
	}
	if raw == "" {
		return nil
	}

	data := utils.ParseJSLiteral(raw)
	if data == nil {
		return nil
	}
	if aweme := findAwemeNode(data, 0); aweme != nil {
		return a.extractFromAweme(aweme)
	}
	return nil
}

// fromMetaTags 第三层：社交预览 meta 标签，信息最少但最稳
func (a *DouyinAdapter) fromMetaTags(html string) *models.VideoRecord {
	record := parseOGMeta(html, douyinTitleSuffix)
	if record == nil {
		return nil
	}
	record.Platform = models.PlatformDouyin
	return record
}

// findAwemeNode 在任意嵌套结构里定位视频详情节点。
// 判据：同时带 desc 与 author/statistics 的对象。深度限制防环
func findAwemeNode(v interface{}, depth int) map[string]interface{} {
	if depth > 10 {
		return nil
	}

	switch node := v.(type) {
	case map[string]interface{}:
		if _, hasDesc := node["desc"]; hasDesc {
			_, hasAuthor := node["author"]
			_, hasStats := node["statistics"]
			if hasAuthor || hasStats {
				return node
			}
		}
		for _, child := range node {
			if found := findAwemeNode(child, depth+1); found != nil {
				return found
			}
		}
	case []interface{}:
		for i, child := range node {
			if i >= 10 {
				break
			}
			if found := findAwemeNode(child, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}

// extractFromAweme 从 aweme 详情节点映射统一记录
func (a *DouyinAdapter) extractFromAweme(aweme map[string]interface{}) *models.VideoRecord {
	record := &models.VideoRecord{
		Status: models.Status{Success: true},
		Content: models.Content{
			Title:    getString(aweme, "desc"),
			Desc:     getString(aweme, "desc"),
			NoteType: models.NoteTypeVideo,
		},
	}

	if author := getMap(aweme, "author"); author != nil {
		record.AuthorInfo.Author = getString(author, "nickname", "unique_id")
		record.AuthorInfo.AuthorID = getString(author, "uid", "sec_uid", "id")
	}

	if stats := getMap(aweme, "statistics"); stats != nil {
		record.Statistics.LikeCount = utils.ParseCountValue(getValue(stats, "digg_count", "like_count"))
		record.Statistics.CommentCount = utils.ParseCountValue(getValue(stats, "comment_count"))
		record.Statistics.ShareCount = utils.ParseCountValue(getValue(stats, "share_count"))
		record.Statistics.CollectCount = utils.ParseCountValue(getValue(stats, "collect_count", "favorite_count"))
	}

	record.VideoDetail.VideoID = getString(aweme, "aweme_id")
	if t, ok := getNumber(aweme, "create_time"); ok {
		record.VideoDetail.CreateTime = models.Int64Ptr(t)
	}

	if video := getMap(aweme, "video"); video != nil {
		if d, ok := getNumber(video, "duration"); ok {
			record.VideoDetail.Duration = models.Int64Ptr(d)
		}
		if cover := firstURLOf(video, "origin_cover", "cover", "dynamic_cover"); cover != "" {
			record.URLs.CoverURL = cover
		}
		if addr := getMap(video, "play_addr"); addr != nil {
			if u := firstInURLList(addr); u != "" {
				record.URLs.VideoURL = u
			}
		}
	}

	if music := getMap(aweme, "music"); music != nil {
		record.MusicInfo.Music = getString(music, "title", "author")

		// 独立音轨：多个候选字段逐一尝试
		for _, key := range []string{"play_url", "audio_url", "play_url_web", "stream_url", "play_addr"} {
			switch v := music[key].(type) {
			case string:
				if v != "" {
					record.URLs.AudioURL = v
				}
			case map[string]interface{}:
				if u := firstInURLList(v); u != "" {
					record.URLs.AudioURL = u
				}
			}
			if record.URLs.AudioURL != "" {
				break
			}
		}
	}

	if record.URLs.AudioURL == "" {
		if video := getMap(aweme, "video"); video != nil {
			if addr := getMap(video, "download_addr", "play_addr"); addr != nil {
				record.URLs.AudioURL = firstInURLList(addr)
			}
		}
	}

	return record
}

// firstURLOf 封面类字段：可能是 url_list 对象或直接字符串
func firstURLOf(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}:
			if u := firstInURLList(v); u != "" {
				return u
			}
		}
	}
	return ""
}

func firstInURLList(m map[string]interface{}) string {
	list := getSlice(m, "url_list")
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
