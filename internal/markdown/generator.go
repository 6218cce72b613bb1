// Package markdown 从统一视频记录渲染本地笔记文件
package markdown

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/media"
	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

//go:embed template.md
var defaultTemplate string

// Extras 笔记的富化素材，均可空
type Extras struct {
	Summary           string
	FormattedText     string
	Frames            []media.Frame
	MindmapImagePath  string // 相对笔记文件的路径
	MindmapSourcePath string
}

// Generator Markdown笔记生成器
type Generator struct {
	template  string
	outputDir string
	logger    *zap.Logger
}

// NewGenerator 创建生成器。模板文件不存在或未配置时用内置模板
func NewGenerator(cfg *config.OutputConfig, logger *zap.Logger) *Generator {
	tpl := defaultTemplate
	if cfg.TemplatePath != "" {
		if data, err := os.ReadFile(cfg.TemplatePath); err == nil {
			tpl = string(data)
		} else {
			logger.Warn("template load failed, using builtin",
				zap.String("path", cfg.TemplatePath),
				zap.Error(err))
		}
	}
	// 模板里的中文引号统一成半角，占位符替换才能命中
	tpl = strings.NewReplacer("“", `"`, "”", `"`).Replace(tpl)

	outputDir := cfg.Dir
	if outputDir == "" {
		outputDir = "output"
	}

	return &Generator{
		template:  tpl,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Generate 渲染并写出笔记文件，返回文件路径。
// 失败的解析记录不产笔记
func (g *Generator) Generate(record *models.VideoRecord, extras *Extras) (string, error) {
	if record == nil || !record.Status.Success {
		return "", fmt.Errorf("cannot generate note for failed record")
	}
	if extras == nil {
		extras = &Extras{}
	}

	title := record.Content.Title
	if title == "" {
		title = "未知标题"
	}

	text := "无转录内容"
	if extras.FormattedText != "" {
		text = extras.FormattedText
	} else if record.Transcription != nil && record.Transcription.Text != "" {
		text = record.Transcription.Text
	}

	tag := "无"
	if record.Content.Tag != nil {
		tag = *record.Content.Tag
	}

	replacer := strings.NewReplacer(
		`"title"`, title,
		`"cover_url"`, orDefault(record.URLs.CoverURL, "无"),
		`"video_url"`, orDefault(record.URLs.VideoURL, "无"),
		`"audio_url"`, orDefault(record.URLs.AudioURL, "无"),
		`"tag"`, tag,
		`"author"`, orDefault(record.AuthorInfo.Author, "未知"),
		`"author_id"`, orDefault(record.AuthorInfo.AuthorID, "未知"),
		`"duration"`, formatDuration(record.VideoDetail.Duration),
		`"video_id"`, orDefault(record.VideoDetail.VideoID, "未知"),
		`"create_time"`, formatTimestamp(record.VideoDetail.CreateTime),
		`"now"`, time.Now().Format("2006-01-02 15:04"),
		`"like_count"`, formatNumber(record.Statistics.LikeCount),
		`"comment_count"`, formatNumber(record.Statistics.CommentCount),
		`"share_count"`, formatNumber(record.Statistics.ShareCount),
		`"collect_count"`, formatNumber(record.Statistics.CollectCount),
		`"text"`, text,
	)
	content := replacer.Replace(g.template)

	content += g.renderImages(record)
	content += renderSummary(extras.Summary)
	content += renderMindmap(extras)
	content += renderFrames(extras.Frames)

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", err
	}

	filename := utils.SanitizeFilename(title) + "_笔记.md"
	outputPath := filepath.Join(g.outputDir, filename)
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(outputPath)
	if err != nil {
		abs = outputPath
	}
	g.logger.Info("note generated", zap.String("path", abs))
	return abs, nil
}

// OutputDir 笔记输出目录
func (g *Generator) OutputDir() string {
	return g.outputDir
}

// renderImages 图文笔记附图片清单
func (g *Generator) renderImages(record *models.VideoRecord) string {
	if !record.IsImageNote() || len(record.URLs.Images) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n## 图片\n\n")
	for i, img := range record.URLs.Images {
		fmt.Fprintf(&b, "![图片%d](%s)\n\n", i+1, img)
	}
	return b.String()
}

func renderSummary(summary string) string {
	if summary == "" {
		return ""
	}
	return "\n## 摘要\n\n" + summary + "\n"
}

func renderMindmap(extras *Extras) string {
	if extras.MindmapImagePath == "" {
		return ""
	}
	s := "\n## 思维导图\n\n![思维导图](" + extras.MindmapImagePath + ")\n"
	if extras.MindmapSourcePath != "" {
		s += "\n[导图源文件](" + extras.MindmapSourcePath + ")\n"
	}
	return s
}

func renderFrames(frames []media.Frame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n## 关键画面\n\n")
	for _, frame := range frames {
		fmt.Fprintf(&b, "**%s**\n\n![%s](%s)\n\n", frame.Label, frame.Label, frame.RelativePath)
	}
	return b.String()
}

// formatDuration 毫秒转 mm:ss，超过一小时转 hh:mm:ss
func formatDuration(durationMs *int64) string {
	if durationMs == nil {
		return "未知"
	}
	total := *durationMs / 1000
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// formatTimestamp 秒级时间戳转可读时间，毫秒级的先降到秒
func formatTimestamp(timestamp *int64) string {
	if timestamp == nil {
		return "未知"
	}
	ts := *timestamp
	if ts > 10000000000 {
		ts /= 1000
	}
	return time.Unix(ts, 0).Format("2006-01-02 15:04")
}

func formatNumber(num *int64) string {
	if num == nil {
		return "无数据"
	}
	return strconv.FormatInt(*num, 10)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
