package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// IsValidURL 验证URL格式是否有效
func IsValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	// 必须是http或https协议
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	// 必须有host
	if u.Host == "" {
		return false
	}

	return true
}

// NormalizeURL 标准化URL(去除追踪参数等)。
// 授权类参数（如 xsec_token）必须保留，否则后续访问会被拒绝
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	trackingParams := []string{"utm_source", "utm_medium", "utm_campaign", "fbclid", "gclid", "share_token", "from"}
	for _, param := range trackingParams {
		q.Del(param)
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// SanitizeString 清理字符串中的多余空白
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// SanitizeFilename 替换文件名中的非法字符，超长按字符数截断
func SanitizeFilename(name string) string {
	s := illegalFilenameChars.ReplaceAllString(name, "_")
	s = strings.Trim(s, " .")

	runes := []rune(s)
	if len(runes) > 100 {
		s = string(runes[:100])
	}
	return s
}
