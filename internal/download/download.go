// Package download 负责把远程媒体拉取到本地临时文件。
// 防盗链域名自动附加对应请求头。临时文件由调用方负责删除
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/restricted"
)

// Downloader 媒体下载器
type Downloader struct {
	client *http.Client
	logger *zap.Logger
}

// NewDownloader 创建下载器
func NewDownloader(timeout time.Duration, logger *zap.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchTemp 下载远程媒体到临时文件，返回文件路径。
// 任何失败路径都会清掉已写入的部分文件
func (d *Downloader) FetchTemp(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	for k, v := range restricted.Detect(rawURL) {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "capsule-*"+suffixFor(rawURL))
	if err != nil {
		return "", err
	}

	written, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		os.Remove(tmp.Name())
		if err == nil {
			err = closeErr
		}
		return "", fmt.Errorf("write temp file failed: %w", err)
	}

	d.logger.Debug("media downloaded",
		zap.String("url", rawURL),
		zap.String("file", tmp.Name()),
		zap.Int64("bytes", written))
	return tmp.Name(), nil
}

// suffixFor B站 DASH 分流是裸 m4s 段，其余平台按 mp4 处理
func suffixFor(rawURL string) string {
	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, "bilivideo") || strings.Contains(lower, "bilibili") {
		return ".m4s"
	}
	return ".mp4"
}
