// Package resolver 将平台短链还原为规范链接。
package resolver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Resolver 短链解析器。
// 解析结果必须保留重定向目标上的授权查询参数（如小红书 xsec_token），
// 静默丢弃会导致后续访问被拒绝
type Resolver struct {
	client *http.Client
	logger *zap.Logger
}

// New 创建短链解析器
func New(timeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Resolve 跟随HTTP重定向解析短链，返回最终URL。
// 适用于无需脚本执行即可跳转的短链，是代价最低的解析机制
func (r *Resolver) Resolve(ctx context.Context, shortURL string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to resolve short url: %w", err)
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	if final != shortURL {
		r.logger.Debug("short url resolved",
			zap.String("input", shortURL),
			zap.String("resolved", final))
	}
	return final, nil
}

// ResolveOneHop 只跟随一跳重定向，读取 Location 头。
// 上游把失效短链重定向到通用错误页，只取一跳可以在那之前拿到规范地址
func (r *Resolver) ResolveOneHop(ctx context.Context, shortURL string, headers map[string]string) (string, error) {
	client := &http.Client{
		Timeout: r.client.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, shortURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to resolve short url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc := resp.Header.Get("Location")
		if loc != "" {
			return loc, nil
		}
	}
	return shortURL, nil
}
