package detector

import (
	"regexp"
	"strings"

	"github.com/Seemerry/VideoCapsule/internal/models"
)

// platformURLPatterns 各平台分享文本中可接受的链接文法。
// 同一平台可能有短域形式与规范域形式，逐个尝试取首个命中
var platformURLPatterns = map[models.Platform][]*regexp.Regexp{
	models.PlatformDouyin: {
		regexp.MustCompile(`https?://v\.douyin\.com/[a-zA-Z0-9_\-]+/?`),
		regexp.MustCompile(`https?://www\.douyin\.com/video/\d+`),
		regexp.MustCompile(`https?://www\.iesdouyin\.com/share/video/\d+`),
	},
	models.PlatformBilibili: {
		regexp.MustCompile(`https?://(?:www\.)?bilibili\.com/video/BV[a-zA-Z0-9]+/?`),
		regexp.MustCompile(`https?://b23\.tv/[a-zA-Z0-9]+`),
		regexp.MustCompile(`BV[a-zA-Z0-9]{10,}`),
	},
	models.PlatformXiaohongshu: {
		regexp.MustCompile(`https?://xhslink\.com/[a-zA-Z0-9/]+`),
		regexp.MustCompile(`https?://www\.xiaohongshu\.com/explore/[a-zA-Z0-9]+[^\s"'，。]*`),
		regexp.MustCompile(`https?://www\.xiaohongshu\.com/discovery/item/[a-zA-Z0-9]+[^\s"'，。]*`),
	},
	models.PlatformKuaishou: {
		regexp.MustCompile(`https?://v\.kuaishou\.com/[a-zA-Z0-9_\-]+`),
		regexp.MustCompile(`https?://www\.kuaishou\.com/short-video/[a-zA-Z0-9_\-]+`),
		regexp.MustCompile(`https?://www\.kuaishou\.com/f/[a-zA-Z0-9_\-]+`),
	},
}

// 复制分享文本时常见的尾部残留：引号、括号、中英文标点
const trailingArtifacts = "\"'”’)）】]>，。,.!？?；; "

// ExtractURL 从分享文本中提取指定平台的首个合法链接。
// 分享文本可能混有引号、话题、表情等杂质；找不到返回空串，从不报错——
// 提取失败是正常预期结果，由调用方以错误状态上报
func ExtractURL(text string, platform models.Platform) string {
	text = strings.TrimSpace(text)

	if platform == models.PlatformLocal {
		return strings.Trim(text, `"'`)
	}

	patterns, ok := platformURLPatterns[platform]
	if !ok {
		return ""
	}

	for _, pattern := range patterns {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}
		match = strings.TrimRight(match, trailingArtifacts)

		// 裸 BV 号补全成规范链接
		if strings.HasPrefix(match, "BV") {
			return "https://www.bilibili.com/video/" + match + "/"
		}
		// 抖音短链以 / 结尾是标准形态
		if strings.HasPrefix(match, "https://v.douyin.com/") && !strings.HasSuffix(match, "/") {
			match += "/"
		}
		return match
	}

	return ""
}
