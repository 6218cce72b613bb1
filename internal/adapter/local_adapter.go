package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/media"
	"github.com/Seemerry/VideoCapsule/internal/models"
)

// 支持的视频扩展名
var localSupportedExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".flv": true, ".wmv": true, ".webm": true, ".m4v": true,
}

var localTitleCleanups = []*regexp.Regexp{
	regexp.MustCompile(`\s*-\s*\d+\.\s*`),         // "- 1." 分P序号
	regexp.MustCompile(`\s*\(Av\d+,P\d+\)\s*$`),   // "(Av123,P1)" 下载器追加
	regexp.MustCompile(`\s*\(av\d+,P\d+\)\s*$`),   // 同上，小写
	regexp.MustCompile(`\s*\[.*?\]\s*$`),          // 结尾方括号标注
}

var localBracketPrefix = regexp.MustCompile(`^([【\[「『].*?[】\]」』])(.+)$`)

// LocalAdapter 本地文件策略。
// 不经网络，元信息来自文件系统与 ffprobe；统计类字段无来源，全部留空
type LocalAdapter struct {
	prober *media.Prober
	logger *zap.Logger
}

// NewLocalAdapter 创建本地文件适配器
func NewLocalAdapter(prober *media.Prober, logger *zap.Logger) *LocalAdapter {
	return &LocalAdapter{prober: prober, logger: logger}
}

// IsLocalVideoFile 判断路径是否为支持的本地视频文件
func IsLocalVideoFile(path string) bool {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return localSupportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Parse 解析本地视频文件
func (a *LocalAdapter) Parse(ctx context.Context, filePath string) (*models.VideoRecord, error) {
	info, err := os.Stat(filePath)
	if err != nil || !info.Mode().IsRegular() {
		return models.NewFailedRecord(fmt.Sprintf("文件不存在: %s", filePath)), nil
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if !localSupportedExtensions[ext] {
		return models.NewFailedRecord(fmt.Sprintf("不支持的视频格式: %s", ext)), nil
	}

	record := &models.VideoRecord{
		Status:   models.Status{Success: true},
		Platform: models.PlatformLocal,
		URLs: models.URLs{
			// 本地文件同时作为视频源和音频源
			VideoURL: filePath,
			AudioURL: filePath,
			FinalURL: filePath,
		},
		Content: models.Content{
			Title:    extractTitleFromFilename(filePath),
			NoteType: models.NoteTypeVideo,
		},
		VideoDetail: models.VideoDetail{
			VideoID:    filepath.Base(filePath),
			CreateTime: models.Int64Ptr(info.ModTime().Unix()),
		},
	}

	// ffprobe 缺失时时长留空，解析仍然成功
	record.VideoDetail.Duration = a.prober.ProbeDuration(ctx, filePath)

	return record, nil
}

// extractTitleFromFilename 从文件名提取标题。
// 下载工具产出的文件名常带分P序号、AV号标注和整段重复
func extractTitleFromFilename(filePath string) string {
	filename := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	cleaned := filename
	for _, pattern := range localTitleCleanups {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}

	// "【漫士】xxx【漫士】xxx" 形态：带括号前缀的整段重复
	if m := localBracketPrefix.FindStringSubmatch(cleaned); m != nil {
		prefix, content := m[1], strings.TrimSpace(m[2])
		if strings.HasPrefix(content, prefix) {
			cleaned = prefix + strings.TrimSpace(content[len(prefix):])
		}
	}

	// 无分隔符的整段重复：找到最长的自重复前缀
	runes := []rune(cleaned)
	for length := len(runes) / 2; length > 0; length-- {
		if len(runes) < length*2 {
			continue
		}
		firstHalf := string(runes[:length])
		secondHalf := strings.TrimLeft(string(runes[length:]), " ")
		if strings.HasPrefix(secondHalf, firstHalf) {
			cleaned = firstHalf
			break
		}
	}

	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return filename
	}
	return cleaned
}
