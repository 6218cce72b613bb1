package detector

import (
	"os"
	"regexp"
	"strings"

	"github.com/Seemerry/VideoCapsule/internal/models"
)

// platformDomains 各平台的已知域名集合。切片顺序即匹配优先级：
// 裸 ID 文法可能重叠（例如 10 位以上字母数字串），歧义时按声明顺序裁决
var platformDomains = []struct {
	platform models.Platform
	domains  []string
}{
	{models.PlatformDouyin, []string{"douyin.com", "iesdouyin.com"}},
	{models.PlatformBilibili, []string{"bilibili.com", "b23.tv"}},
	{models.PlatformXiaohongshu, []string{"xiaohongshu.com", "xhslink.com"}},
	{models.PlatformKuaishou, []string{"kuaishou.com"}},
}

// bvidBarePattern BV 前缀裸 ID，唯一允许无域名归类的裸 token 形式
var bvidBarePattern = regexp.MustCompile(`BV[a-zA-Z0-9]{10,}`)

// PlatformDetector 平台检测器
type PlatformDetector struct{}

// NewPlatformDetector 创建平台检测器
func NewPlatformDetector() *PlatformDetector {
	return &PlatformDetector{}
}

// Detect 将输入归类到唯一平台。
// 判定顺序：本地已存在的常规文件无条件优先（路径中出现平台字样也不例外），
// 其次按声明顺序匹配域名，再尝试裸 ID 规则，都不中返回 unknown。
// unknown 不是错误，是合法终态，调用方应拒绝继续而非猜测
func (d *PlatformDetector) Detect(input string) models.Platform {
	input = strings.TrimSpace(input)
	if input == "" {
		return models.PlatformUnknown
	}

	if info, err := os.Stat(input); err == nil && info.Mode().IsRegular() {
		return models.PlatformLocal
	}

	lower := strings.ToLower(input)
	for _, entry := range platformDomains {
		for _, domain := range entry.domains {
			if strings.Contains(lower, domain) {
				return entry.platform
			}
		}
	}

	if bvidBarePattern.MatchString(input) {
		return models.PlatformBilibili
	}

	return models.PlatformUnknown
}
