// Package mindmap 用 markmap.js 把 Markdown 渲染成思维导图 PNG。
// 渲染在无头浏览器里完成，依赖外网 CDN 加载 markmap 脚本
package mindmap

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/browser"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <style>
    body { margin: 0; background: white; }
    #markmap { display: block; width: 100vw; height: 100vh; }
  </style>
</head>
<body>
  <svg id="markmap"></svg>
  <script src="https://cdn.jsdelivr.net/npm/d3@7"></script>
  <script src="https://cdn.jsdelivr.net/npm/markmap-view"></script>
  <script src="https://cdn.jsdelivr.net/npm/markmap-lib"></script>
  <script>
    const md = __MINDMAP_CONTENT__;
    const { Transformer } = markmap;
    const { Markmap } = markmap;
    const transformer = new Transformer();
    const { root } = transformer.transform(md);
    const svg = document.querySelector('#markmap');
    const mm = Markmap.create(svg, {
      autoFit: true,
      color: (node) => {
        const colors = ['#2196F3', '#4CAF50', '#FF9800', '#9C27B0', '#F44336', '#00BCD4'];
        return colors[node.state.depth % colors.length];
      }
    }, root);
    setTimeout(() => document.body.setAttribute('data-ready', 'true'), 2000);
  </script>
</body>
</html>`

// Result 生成产物路径
type Result struct {
	ImagePath          string
	ImageRelativePath  string
	SourcePath         string
	SourceRelativePath string
}

// Generator 思维导图生成器
type Generator struct {
	browser *browser.Browser
	logger  *zap.Logger
}

// NewGenerator 创建生成器
func NewGenerator(b *browser.Browser, logger *zap.Logger) *Generator {
	return &Generator{browser: b, logger: logger}
}

// Generate 把导图 Markdown 渲染成 PNG，源文件一并存入 assets 目录。
// 源文件落盘在渲染之前，渲染失败后还能用 regenerate 重试
func (g *Generator) Generate(ctx context.Context, mindmapMd, outputDir, title string) (*Result, error) {
	safeTitle := utils.SanitizeFilename(title)
	assetsDir := filepath.Join(outputDir, safeTitle+"_assets")
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return nil, err
	}

	sourcePath := filepath.Join(assetsDir, "mindmap.md")
	if err := os.WriteFile(sourcePath, []byte(mindmapMd), 0o644); err != nil {
		return nil, err
	}

	imagePath := filepath.Join(assetsDir, "mindmap.png")
	if err := g.renderToPNG(ctx, mindmapMd, imagePath); err != nil {
		return nil, err
	}

	absImage, _ := filepath.Abs(imagePath)
	absSource, _ := filepath.Abs(sourcePath)
	g.logger.Info("mindmap generated", zap.String("image", absImage))

	return &Result{
		ImagePath:          absImage,
		ImageRelativePath:  safeTitle + "_assets/mindmap.png",
		SourcePath:         absSource,
		SourceRelativePath: safeTitle + "_assets/mindmap.md",
	}, nil
}

// Regenerate 从已有的 mindmap.md 源文件重新渲染 PNG
func (g *Generator) Regenerate(ctx context.Context, sourcePath string) (string, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to read mindmap source: %w", err)
	}

	imagePath := filepath.Join(filepath.Dir(sourcePath), "mindmap.png")
	if err := g.renderToPNG(ctx, string(data), imagePath); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(imagePath)
	if err != nil {
		abs = imagePath
	}
	return abs, nil
}

// renderToPNG 写临时HTML，无头浏览器加载后对 SVG 截图
func (g *Generator) renderToPNG(ctx context.Context, mindmapMd, outputPath string) error {
	mdJSON, err := json.Marshal(mindmapMd)
	if err != nil {
		return err
	}
	html := strings.Replace(htmlTemplate, "__MINDMAP_CONTENT__", string(mdJSON), 1)

	tmpFile, err := os.CreateTemp("", "mindmap-*.html")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.WriteString(html); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	bctx, cancel := g.browser.NewContext(ctx)
	defer cancel()

	bctx, cancelTimeout := context.WithTimeout(bctx, g.browser.NavTimeout())
	defer cancelTimeout()

	var screenshot []byte
	err = chromedp.Run(bctx,
		chromedp.EmulateViewport(1600, 900),
		chromedp.Navigate("file://"+filepath.ToSlash(tmpPath)),
		chromedp.WaitReady(`[data-ready="true"]`, chromedp.ByQuery),
		chromedp.Screenshot("#markmap", &screenshot, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("mindmap render failed: %w", err)
	}

	return os.WriteFile(outputPath, screenshot, 0o644)
}
