package utils

import (
	"regexp"
	"strings"
)

// TagSeparator 多个标签的连接符
const TagSeparator = " 、"

var (
	hashTagPattern    = regexp.MustCompile(`#([^#\s]+)`)
	bracketTagPattern = regexp.MustCompile(`\[([^\]]+)\]`)
	trailingPunct     = regexp.MustCompile(`\s*[，、。,]*$`)
)

// ParseTitleAndTag 从标题中拆分出标签。
// 识别 #标签 形式；withBrackets 时额外识别 [话题] 形式（小红书）。
// 标签按出现顺序去重后用顿号连接；标题去掉标签子串并收敛空白。
// 对已拆分过的标题再次调用是无操作（幂等）
func ParseTitleAndTag(title string, withBrackets bool) (string, *string) {
	var tags []string

	for _, m := range hashTagPattern.FindAllStringSubmatch(title, -1) {
		tags = append(tags, m[1])
	}
	if withBrackets {
		for _, m := range bracketTagPattern.FindAllStringSubmatch(title, -1) {
			tags = append(tags, m[1])
		}
	}

	if len(tags) == 0 {
		return title, nil
	}

	// 按出现顺序去重
	seen := make(map[string]struct{}, len(tags))
	uniq := tags[:0]
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		uniq = append(uniq, t)
	}

	cleaned := hashTagPattern.ReplaceAllString(title, "")
	if withBrackets {
		cleaned = bracketTagPattern.ReplaceAllString(cleaned, "")
	}
	cleaned = SanitizeString(cleaned)
	cleaned = trailingPunct.ReplaceAllString(cleaned, "")

	tag := strings.Join(uniq, TagSeparator)
	return cleaned, &tag
}
