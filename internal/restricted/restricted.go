// Package restricted 识别启用防盗链的媒体域名，并给出下载所需的完整请求头。
package restricted

import (
	"strings"
)

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// rule 受限域名集合与对应的请求头
type rule struct {
	domains []string
	headers map[string]string
}

// 已知强制 Referer 校验的平台媒体域名表。
// 未收录的域名视为无需特殊处理
var rules = []rule{
	{
		domains: []string{"bilivideo.com", "bilibili.com", "b23.tv"},
		headers: map[string]string{
			"User-Agent": desktopUA,
			"Referer":    "https://www.bilibili.com",
		},
	},
	{
		domains: []string{"douyinvod.com", "douyin.com", "iesdouyin.com"},
		headers: map[string]string{
			"User-Agent": desktopUA,
			"Referer":    "https://www.douyin.com/",
		},
	},
	{
		domains: []string{"xhscdn.com", "xiaohongshu.com", "xhslink.com"},
		headers: map[string]string{
			"User-Agent": desktopUA,
			"Referer":    "https://www.xiaohongshu.com",
		},
	},
	{
		domains: []string{"kuaishou.com", "ksvideo"},
		headers: map[string]string{
			"User-Agent": desktopUA,
			"Referer":    "https://www.kuaishou.com",
		},
	},
}

// Detect 判断媒体 URL 是否属于受限域名。
// 命中返回下载所需的请求头集合，未命中返回 nil 表示无需特殊处理
func Detect(mediaURL string) map[string]string {
	lower := strings.ToLower(mediaURL)
	for _, r := range rules {
		for _, d := range r.domains {
			if strings.Contains(lower, d) {
				return r.headers
			}
		}
	}
	return nil
}
