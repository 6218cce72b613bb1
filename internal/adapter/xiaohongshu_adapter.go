package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/browser"
	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/resolver"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

var (
	xhsNoteIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/explore/([a-zA-Z0-9]+)`),
		regexp.MustCompile(`/discovery/item/([a-zA-Z0-9]+)`),
		regexp.MustCompile(`/note/([a-zA-Z0-9]+)`),
	}
	xhsStatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)<script>window\.__INITIAL_STATE__\s*=\s*(\{.+?\})\s*</script>`),
		regexp.MustCompile(`(?s)<script>window\.__INITIAL_SSR_STATE__\s*=\s*(\{.+?\})\s*</script>`),
	}
	xhsTitleSuffix = regexp.MustCompile(`\s*[-|]\s*小红书.*$`)
)

// XiaohongshuAdapter 小红书平台适配器。
// 刻意不用浏览器自动化：该平台的反自动化策略拦截无头浏览器，
// 但服务端渲染的页面对普通 HTTP 客户端直接可用。
// 从 __INITIAL_STATE__ 脚本块取数据，meta 标签按字段粒度兜底
type XiaohongshuAdapter struct {
	client   *http.Client
	resolver *resolver.Resolver
	logger   *zap.Logger
}

// NewXiaohongshuAdapter 创建小红书适配器
func NewXiaohongshuAdapter(timeout time.Duration, res *resolver.Resolver, logger *zap.Logger) *XiaohongshuAdapter {
	return &XiaohongshuAdapter{
		client:   &http.Client{Timeout: timeout},
		resolver: res,
		logger:   logger,
	}
}

func xiaohongshuHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      browser.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		"Referer":         "https://www.xiaohongshu.com",
	}
}

// Parse 解析小红书笔记链接
func (a *XiaohongshuAdapter) Parse(ctx context.Context, rawURL string) (*models.VideoRecord, error) {
	resolved := rawURL
	if strings.Contains(rawURL, "xhslink.com") {
		r, err := a.resolver.Resolve(ctx, rawURL, xiaohongshuHeaders())
		if err != nil {
			a.logger.Warn("short url resolve failed", zap.Error(err))
		} else {
			resolved = r
		}
	}

	noteID := extractXhsNoteID(resolved)
	if noteID == "" {
		return models.NewFailedRecord("无法从URL中提取笔记ID"), nil
	}

	// 构造 explore URL 时保留 query 参数，xsec_token 丢失会被拒绝访问
	exploreURL := "https://www.xiaohongshu.com/explore/" + noteID
	if u, err := url.Parse(resolved); err == nil && u.RawQuery != "" {
		exploreURL += "?" + u.RawQuery
	}

	html, err := a.fetchHTML(ctx, exploreURL)
	if err != nil {
		return models.NewFailedRecord(fmt.Sprintf("请求失败: %v", err)), nil
	}

	finalURL := strings.SplitN(exploreURL, "?", 2)[0]
	meta := a.extractFromMeta(html, noteID)

	if state := extractXhsInitialState(html); state != nil {
		if record := a.extractFromState(state, noteID); record != nil && record.Status.Success {
			// SSR 数据可能缺个别字段（最常见是封面），用 meta 标签按字段补齐
			if record.URLs.CoverURL == "" && meta.URLs.CoverURL != "" {
				record.URLs.CoverURL = meta.URLs.CoverURL
			}
			if record.URLs.VideoURL == "" && meta.URLs.VideoURL != "" && record.Content.NoteType == models.NoteTypeVideo {
				record.URLs.VideoURL = meta.URLs.VideoURL
				record.URLs.AudioURL = meta.URLs.VideoURL
			}
			record.URLs.FinalURL = finalURL
			return record, nil
		}
	}

	// 整体回退到 meta 标签提取
	meta.URLs.FinalURL = finalURL
	return meta, nil
}

func extractXhsNoteID(rawURL string) string {
	for _, p := range xhsNoteIDPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

func (a *XiaohongshuAdapter) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	for k, v := range xiaohongshuHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// extractXhsInitialState 提取并修复页面内嵌状态对象。
// 上游把客户端运行时的 undefined 字面量直接序列化进了 HTML
func extractXhsInitialState(html string) map[string]interface{} {
	for _, p := range xhsStatePatterns {
		m := p.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		if data := utils.ParseJSLiteral(m[1]); data != nil {
			return data
		}
	}
	return nil
}

// extractFromState 从 __INITIAL_STATE__ 中定位笔记数据
func (a *XiaohongshuAdapter) extractFromState(state map[string]interface{}, noteID string) *models.VideoRecord {
	detailMap := getMap(getMap(state, "note"), "noteDetailMap")

	var noteData map[string]interface{}
	if detailMap != nil {
		if entry := getMap(detailMap, noteID); entry != nil {
			noteData = getMap(entry, "note")
		}
		if noteData == nil {
			for key, v := range detailMap {
				if key == "null" {
					continue
				}
				if entry := asMap(v); entry != nil {
					if n := getMap(entry, "note"); n != nil {
						noteData = n
						break
					}
				}
			}
		}
	}
	if noteData == nil {
		noteData = getMap(state, "noteData")
	}
	if noteData == nil {
		noteData = getMap(getMap(state, "note"), "note")
	}
	if noteData == nil {
		return nil
	}

	return a.extractFromNoteCard(noteData, noteID)
}

// extractFromNoteCard 从笔记数据中提取信息。
// 视频与图文两种形态由 type 字段判别，字段命名两种大小写都要查
func (a *XiaohongshuAdapter) extractFromNoteCard(card map[string]interface{}, noteID string) *models.VideoRecord {
	record := &models.VideoRecord{
		Status:   models.Status{Success: true},
		Platform: models.PlatformXiaohongshu,
	}

	if getString(card, "type") == "video" {
		record.Content.NoteType = models.NoteTypeVideo
	} else {
		record.Content.NoteType = models.NoteTypeImage
	}

	record.Content.Title = getString(card, "title")
	record.Content.Desc = getString(card, "desc")
	if record.Content.Title == "" && record.Content.Desc != "" {
		firstLine := strings.SplitN(record.Content.Desc, "\n", 2)[0]
		runes := []rune(firstLine)
		if len(runes) > 50 {
			firstLine = string(runes[:50])
		}
		record.Content.Title = firstLine
	}

	if user := getMap(card, "user"); user != nil {
		record.AuthorInfo.Author = getString(user, "nickname", "name")
		record.AuthorInfo.AuthorID = getString(user, "userId", "uid", "user_id")
	}

	if interact := getMap(card, "interactInfo", "interact_info"); interact != nil {
		record.Statistics.LikeCount = utils.ParseCountValue(getValue(interact, "likedCount", "liked_count"))
		record.Statistics.CommentCount = utils.ParseCountValue(getValue(interact, "commentCount", "comment_count"))
		record.Statistics.ShareCount = utils.ParseCountValue(getValue(interact, "shareCount", "share_count"))
		record.Statistics.CollectCount = utils.ParseCountValue(getValue(interact, "collectedCount", "collected_count"))
	}

	record.VideoDetail.VideoID = getString(card, "noteId", "note_id")
	if record.VideoDetail.VideoID == "" {
		record.VideoDetail.VideoID = noteID
	}
	if t, ok := getNumber(card, "time", "create_time"); ok {
		// 毫秒级时间戳统一为秒
		if t > 9999999999 {
			t /= 1000
		}
		record.VideoDetail.CreateTime = models.Int64Ptr(t)
	}

	if tagList := getSlice(card, "tagList", "tag_list"); tagList != nil {
		var names []string
		for _, item := range tagList {
			if t := asMap(item); t != nil {
				if name := getString(t, "name"); name != "" {
					names = append(names, name)
				}
			}
		}
		if len(names) > 0 {
			record.Content.Tag = models.StringPtr(strings.Join(names, utils.TagSeparator))
		}
	}

	if record.Content.NoteType == models.NoteTypeVideo {
		a.extractVideoNote(card, record)
	} else {
		a.extractImageNote(card, record)
	}

	// 封面兜底：顶层 cover 字段
	if record.URLs.CoverURL == "" {
		if cover := getMap(card, "cover"); cover != nil {
			record.URLs.CoverURL = pickImageURL(cover)
		}
	}

	if music := getMap(card, "music"); music != nil {
		record.MusicInfo.Music = getString(music, "name", "title")
	}

	return record
}

func (a *XiaohongshuAdapter) extractVideoNote(card map[string]interface{}, record *models.VideoRecord) {
	video := getMap(card, "video")
	if video == nil {
		return
	}

	// 视频URL从 stream 中按编码优先级提取
	if media := getMap(video, "media"); media != nil {
		if stream := getMap(media, "stream"); stream != nil {
		streamLoop:
			for _, codec := range []string{"h264", "h265", "av1"} {
				for _, item := range getSlice(stream, codec) {
					if s := asMap(item); s != nil {
						if u := getString(s, "masterUrl", "master_url"); u != "" {
							record.URLs.VideoURL = u
							break streamLoop
						}
					}
				}
			}
		}
	}

	if record.URLs.VideoURL == "" {
		if consumer := getMap(video, "consumer"); consumer != nil {
			if key := getString(consumer, "originVideoKey"); key != "" {
				record.URLs.VideoURL = "https://sns-video-bd.xhscdn.com/" + key
			}
		}
	}
	if record.URLs.VideoURL == "" {
		record.URLs.VideoURL = getString(video, "url")
	}

	// 小红书视频音视频合一，策略边界处做一次回填
	if record.URLs.VideoURL != "" {
		record.URLs.AudioURL = record.URLs.VideoURL
	}

	if d, ok := getNumber(video, "duration"); ok {
		record.VideoDetail.Duration = models.Int64Ptr(d)
	}

	if cover := getMap(video, "image"); cover != nil {
		record.URLs.CoverURL = pickImageURL(cover)
	}
}

func (a *XiaohongshuAdapter) extractImageNote(card map[string]interface{}, record *models.VideoRecord) {
	imageList := getSlice(card, "imageList", "image_list")
	var images []string
	for _, item := range imageList {
		img := asMap(item)
		if img == nil {
			continue
		}
		if u := pickImageURL(img); u != "" {
			images = append(images, u)
			continue
		}
		if u := getString(img, "urlDefault", "url_default"); u != "" {
			images = append(images, u)
		}
	}

	if len(images) > 0 {
		record.URLs.Images = images
		record.URLs.CoverURL = images[0]
	}
}

// pickImageURL 图片对象取URL：infoList 末项质量最高，其次直接 url 字段
func pickImageURL(img map[string]interface{}) string {
	if infoList := getSlice(img, "infoList", "info_list"); len(infoList) > 0 {
		if last := asMap(infoList[len(infoList)-1]); last != nil {
			if u := getString(last, "url"); u != "" {
				return u
			}
		}
	}
	return getString(img, "url")
}

// extractFromMeta 从HTML meta 标签提取笔记信息（回退方案）
func (a *XiaohongshuAdapter) extractFromMeta(html, noteID string) *models.VideoRecord {
	record := &models.VideoRecord{
		Status:   models.Status{Success: false},
		Platform: models.PlatformXiaohongshu,
	}
	record.VideoDetail.VideoID = noteID

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		record.Status.Error = "页面解析失败"
		return record
	}

	title := metaContent(doc, "og:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	record.Content.Title = xhsTitleSuffix.ReplaceAllString(title, "")
	record.Content.Desc = metaContent(doc, "og:description")
	record.URLs.CoverURL = metaContent(doc, "og:image")

	if video := metaContent(doc, "og:video"); video != "" {
		record.Content.NoteType = models.NoteTypeVideo
		record.URLs.VideoURL = video
		record.URLs.AudioURL = video
	} else {
		record.Content.NoteType = models.NoteTypeImage
		var images []string
		doc.Find(`meta[property="og:image"], meta[name="og:image"]`).Each(func(_ int, s *goquery.Selection) {
			if c, ok := s.Attr("content"); ok && c != "" {
				images = append(images, c)
			}
		})
		record.URLs.Images = images
	}

	if record.Content.Title != "" {
		record.Status.Success = true
	} else {
		record.Status.Error = "页面中未找到笔记数据"
	}
	return record
}

// metaContent 读取 og meta 标签内容，property/name 两种写法都接受
func metaContent(doc *goquery.Document, property string) string {
	sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, property, property)
	if c, ok := doc.Find(sel).First().Attr("content"); ok {
		return strings.TrimSpace(c)
	}
	return ""
}
