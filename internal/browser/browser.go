// Package browser 封装 chromedp 无头浏览器上下文的获取与释放。
// 每次解析调用独立一个 context，并发调用之间不得共享，
// 所有退出路径都必须走 cancel，避免泄漏浏览器进程。
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
)

// UserAgent 统一使用的桌面端 UA
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Browser 无头浏览器工厂
type Browser struct {
	execPath   string
	navTimeout time.Duration
	logger     *zap.Logger
}

// New 创建浏览器工厂
func New(cfg *config.BrowserConfig, logger *zap.Logger) *Browser {
	return &Browser{
		execPath:   cfg.ExecPath,
		navTimeout: cfg.GetNavTimeout(),
		logger:     logger,
	}
}

// NavTimeout 导航超时时间
func (b *Browser) NavTimeout() time.Duration {
	return b.navTimeout
}

// NewContext 创建一个独立的浏览器上下文。
// 返回的 cancel 同时回收 tab 与浏览器进程，调用方必须 defer 执行
func (b *Browser) NewContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(UserAgent),
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

// ResolveURL 通过完整页面导航解析链接，返回跳转后的最终地址。
// 用于目标站点需要执行 JavaScript 才会跳转的短链
func (b *Browser) ResolveURL(parent context.Context, rawURL string) (string, error) {
	ctx, cancel := b.NewContext(parent)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, b.navTimeout)
	defer cancelTimeout()

	var finalURL string
	err := chromedp.Run(ctx,
		chromedp.Navigate(rawURL),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return "", err
	}

	b.logger.Debug("browser resolved url",
		zap.String("input", rawURL),
		zap.String("resolved", finalURL))
	return finalURL, nil
}
