package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/browser"
	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

// 快手页面是纯 SPA，无服务端渲染数据，视频数据只能从 GraphQL 拿。
// visionVideoDetail 不含评论数，评论数要从页面自动发起的 commentListQuery 里补
const kuaishouGraphQLQuery = `query visionVideoDetail($photoId: String, $type: String, $page: String, $webPageArea: String) {
  visionVideoDetail(photoId: $photoId, type: $type, page: $page, webPageArea: $webPageArea) {
    status
    type
    author {
      id
      name
      headerUrl
      __typename
    }
    photo {
      id
      duration
      caption
      likeCount
      viewCount
      realLikeCount
      coverUrl
      photoUrl
      photoH265Url
      manifest {
        adaptationSet {
          id
          duration
          representation {
            id
            url
            width
            height
            qualityLabel
            __typename
          }
          __typename
        }
        __typename
      }
      videoResource
      timestamp
      __typename
    }
    tags {
      type
      name
      __typename
    }
    __typename
  }
}`

var kuaishouPhotoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/short-video/([a-zA-Z0-9_\-]+)`),
	regexp.MustCompile(`/f/([a-zA-Z0-9_\-]+)`),
	regexp.MustCompile(`/photo/([a-zA-Z0-9_\-]+)`),
	regexp.MustCompile(`/video/([a-zA-Z0-9_\-]+)`),
}

// KuaishouAdapter 快手平台适配器。
// 导航建立会话后在页面内主动发起 visionVideoDetail GraphQL 调用，
// 自动携带浏览器会话凭据；失败时回退到导航期间捕获的推荐流响应
type KuaishouAdapter struct {
	browser *browser.Browser
	settle  time.Duration
	logger  *zap.Logger
}

// NewKuaishouAdapter 创建快手适配器
func NewKuaishouAdapter(b *browser.Browser, settle time.Duration, logger *zap.Logger) *KuaishouAdapter {
	return &KuaishouAdapter{browser: b, settle: settle, logger: logger}
}

// Parse 解析快手链接
func (a *KuaishouAdapter) Parse(ctx context.Context, rawURL string) (*models.VideoRecord, error) {
	bctx, cancel := a.browser.NewContext(ctx)
	defer cancel()

	bctx, cancelTimeout := context.WithTimeout(bctx, a.browser.NavTimeout())
	defer cancelTimeout()

	capture := a.installGraphQLCapture(bctx)

	var finalURL string
	err := chromedp.Run(bctx,
		network.Enable(),
		chromedp.Navigate(rawURL),
		chromedp.Sleep(a.settle),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		if bctx.Err() == context.DeadlineExceeded {
			return models.NewFailedRecord("页面加载超时"), nil
		}
		return models.NewFailedRecord("解析异常: " + err.Error()), nil
	}

	photoID := extractKuaishouPhotoID(finalURL)
	if photoID == "" {
		photoID = extractKuaishouPhotoID(rawURL)
	}
	if photoID == "" {
		return models.NewFailedRecord("无法从URL中提取视频ID"), nil
	}

	bodies := capture.snapshot()
	commentCount := extractCommentCount(bodies)

	// 主动调用 detail 接口
	if record := a.fetchViaGraphQL(bctx, photoID); record != nil {
		a.finish(record, finalURL, commentCount)
		a.logger.Info("kuaishou parse succeeded",
			zap.String("source", "visionVideoDetail"),
			zap.String("photo_id", photoID))
		return record, nil
	}

	// 回退：推荐流响应里按 photoId 定位目标视频
	if record := findInRecoFeeds(bodies, photoID); record != nil {
		a.finish(record, finalURL, commentCount)
		a.logger.Info("kuaishou parse succeeded",
			zap.String("source", "visionShortVideoReco"),
			zap.String("photo_id", photoID))
		return record, nil
	}

	record := models.NewFailedRecord("GraphQL API 未返回视频数据")
	record.Platform = models.PlatformKuaishou
	record.URLs.FinalURL = finalURL
	record.VideoDetail.VideoID = photoID
	return record, nil
}

func (a *KuaishouAdapter) finish(record *models.VideoRecord, finalURL string, commentCount *int64) {
	record.Platform = models.PlatformKuaishou
	record.URLs.FinalURL = finalURL
	if record.Statistics.CommentCount == nil {
		record.Statistics.CommentCount = commentCount
	}
}

// graphqlCapture 导航期间页面自动发起的 GraphQL 响应体
type graphqlCapture struct {
	mu     sync.Mutex
	bodies []string
}

func (c *graphqlCapture) add(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies = append(c.bodies, body)
}

func (c *graphqlCapture) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.bodies...)
}

func (a *KuaishouAdapter) installGraphQLCapture(bctx context.Context) *graphqlCapture {
	capture := &graphqlCapture{}

	var mu sync.Mutex
	pending := make(map[network.RequestID]bool)

	chromedp.ListenTarget(bctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if strings.Contains(e.Response.URL, "/graphql") {
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
					a.logger.Debug("graphql body fetch failed", zap.Error(err))
					return
				}
				capture.add(string(body))
			}()
		}
	})
	return capture
}

// fetchViaGraphQL 在页面内发起 fetch 调用 detail 接口。
// 走页面上下文是为了自动携带 cookies，直连 API 会被风控拦截
func (a *KuaishouAdapter) fetchViaGraphQL(bctx context.Context, photoID string) *models.VideoRecord {
	photoIDJSON, _ := json.Marshal(photoID)
	queryJSON, _ := json.Marshal(kuaishouGraphQLQuery)

	expr := fmt.Sprintf(`(async () => {
		const response = await fetch('https://www.kuaishou.com/graphql', {
			method: 'POST',
			headers: {'Content-Type': 'application/json'},
			body: JSON.stringify({
				operationName: 'visionVideoDetail',
				variables: {photoId: %s, type: '1', page: 'detail'},
				query: %s,
			}),
			credentials: 'include',
		});
		return await response.text();
	})()`, photoIDJSON, queryJSON)

	var respText string
	err := chromedp.Run(bctx, chromedp.Evaluate(expr, &respText,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		a.logger.Debug("graphql fetch failed", zap.Error(err))
		return nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(respText), &data); err != nil {
		return nil
	}

	detail := getMap(asMap(data["data"]), "visionVideoDetail")
	if detail == nil {
		return nil
	}
	return extractKuaishouDetail(detail)
}

func extractKuaishouPhotoID(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		if id := parsed.Query().Get("photoId"); id != "" {
			return id
		}
	}
	for _, pattern := range kuaishouPhotoIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// extractCommentCount 从捕获的 commentListQuery 响应中取评论数
func extractCommentCount(bodies []string) *int64 {
	for _, body := range bodies {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(body), &data); err != nil {
			continue
		}
		commentList := getMap(asMap(data["data"]), "visionCommentList")
		if commentList == nil {
			continue
		}
		if count := utils.ParseCountValue(getValue(commentList, "commentCountV2", "commentCount")); count != nil {
			return count
		}
	}
	return nil
}

// findInRecoFeeds 从捕获的推荐流响应中按ID定位目标视频
func findInRecoFeeds(bodies []string, photoID string) *models.VideoRecord {
	for _, body := range bodies {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(body), &data); err != nil {
			continue
		}
		reco := getMap(asMap(data["data"]), "visionShortVideoReco")
		if reco == nil {
			continue
		}
		for _, item := range getSlice(reco, "feeds") {
			feed := asMap(item)
			if feed == nil {
				continue
			}
			photo := getMap(feed, "photo")
			if photo == nil || getString(photo, "id") != photoID {
				continue
			}
			if record := extractKuaishouDetail(feed); record != nil {
				return record
			}
		}
	}
	return nil
}

// extractKuaishouDetail 从 detail 响应或推荐流 feed 中映射统一记录，
// 两者的 photo/author/tags 结构一致
func extractKuaishouDetail(detail map[string]interface{}) *models.VideoRecord {
	photo := getMap(detail, "photo")
	if photo == nil {
		return nil
	}

	record := &models.VideoRecord{
		Status: models.Status{Success: true},
		Content: models.Content{
			Title:    getString(photo, "caption"),
			NoteType: models.NoteTypeVideo,
		},
	}

	// 快手音视频合一
	if videoURL := getString(photo, "photoUrl"); videoURL != "" {
		record.URLs.VideoURL = videoURL
		record.URLs.AudioURL = videoURL
	}
	record.URLs.CoverURL = getString(photo, "coverUrl")

	if author := getMap(detail, "author"); author != nil {
		record.AuthorInfo.Author = getString(author, "name")
		record.AuthorInfo.AuthorID = getString(author, "id")
	}

	record.Statistics.LikeCount = utils.ParseCountValue(getValue(photo, "realLikeCount", "likeCount"))
	// 快手无分享数，用播放数替代
	record.Statistics.ShareCount = utils.ParseCountValue(getValue(photo, "viewCount"))

	record.VideoDetail.VideoID = getString(photo, "id")

	if ts, ok := getNumber(photo, "timestamp"); ok {
		if ts > 9999999999 {
			ts /= 1000
		}
		record.VideoDetail.CreateTime = models.Int64Ptr(ts)
	}
	if d, ok := getNumber(photo, "duration"); ok {
		record.VideoDetail.Duration = models.Int64Ptr(d)
	}

	var tagNames []string
	for _, item := range getSlice(detail, "tags") {
		if tag := asMap(item); tag != nil {
			if name := getString(tag, "name"); name != "" {
				tagNames = append(tagNames, name)
			}
		}
	}
	if len(tagNames) > 0 {
		record.Content.Tag = models.StringPtr(strings.Join(tagNames, utils.TagSeparator))
	}

	// manifest 中可能有更高质量的流，按宽度取最大
	if best := bestManifestURL(getMap(photo, "manifest")); best != "" {
		record.URLs.VideoURL = best
		record.URLs.AudioURL = best
	}

	return record
}

func bestManifestURL(manifest map[string]interface{}) string {
	if manifest == nil {
		return ""
	}
	var bestURL string
	var bestWidth int64
	for _, item := range getSlice(manifest, "adaptationSet") {
		adapt := asMap(item)
		if adapt == nil {
			continue
		}
		for _, r := range getSlice(adapt, "representation") {
			rep := asMap(r)
			if rep == nil {
				continue
			}
			width, _ := getNumber(rep, "width")
			if u := getString(rep, "url"); u != "" && width > bestWidth {
				bestWidth = width
				bestURL = u
			}
		}
	}
	return bestURL
}
