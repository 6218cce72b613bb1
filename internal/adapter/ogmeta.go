package adapter

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

// parseOGMeta 从社交预览 meta 标签提取最低限度的记录。
// 站点标题后缀（如"- 抖音"）由调用方传入正则剔除。
// 命中标题即视为部分成功，错误信息保留说明数据不完整
func parseOGMeta(html string, titleSuffix *regexp.Regexp) *models.VideoRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	title := metaContent(doc, "og:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		return nil
	}
	if titleSuffix != nil {
		title = titleSuffix.ReplaceAllString(title, "")
	}
	title = utils.SanitizeString(title)

	desc := metaContent(doc, "og:description")
	if desc == "" {
		desc = title
	}

	videoURL := metaContent(doc, "og:video")
	if videoURL == "" {
		videoURL = metaContent(doc, "og:video:url")
	}

	return &models.VideoRecord{
		Status: models.Status{
			Success: true,
			Error:   "仅提取到页面元信息，数据不完整",
		},
		Content: models.Content{
			Title:    title,
			Desc:     utils.SanitizeString(desc),
			NoteType: models.NoteTypeVideo,
		},
		URLs: models.URLs{
			VideoURL: videoURL,
			CoverURL: metaContent(doc, "og:image"),
		},
	}
}
