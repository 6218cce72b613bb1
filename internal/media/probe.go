// Package media 封装 ffprobe/ffmpeg 命令行工具。
// 工具缺失按可选能力处理：探测返回空结果而不是错误中断主流程
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

// ProbeResult ffprobe 的原始输出结构
type ProbeResult struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Duration  string `json:"duration"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// DurationMillis 视频时长（毫秒）。format 优先，缺失时回退到视频流
func (r *ProbeResult) DurationMillis() *int64 {
	if d := parseSeconds(r.Format.Duration); d != nil {
		return d
	}
	for _, stream := range r.Streams {
		if stream.CodecType == "video" {
			return parseSeconds(stream.Duration)
		}
	}
	return nil
}

func parseSeconds(s string) *int64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	ms := int64(f * 1000)
	return &ms
}

// Prober ffprobe命令封装器
type Prober struct {
	binaryPath string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewProber 创建ffprobe封装器
func NewProber(cfg *config.MediaConfig, logger *zap.Logger) *Prober {
	return &Prober{
		binaryPath: cfg.FFprobePath,
		timeout:    cfg.GetTimeout(),
		logger:     logger,
	}
}

// Probe 探测视频文件信息
func (p *Prober) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binaryPath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, utils.ErrTimeout
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, utils.ErrFFprobeMissing
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &result, nil
}

// ProbeDuration 探测时长（毫秒）。工具缺失或探测失败返回 nil，不报错
func (p *Prober) ProbeDuration(ctx context.Context, filePath string) *int64 {
	result, err := p.Probe(ctx, filePath)
	if err != nil {
		p.logger.Debug("probe failed", zap.String("file", filePath), zap.Error(err))
		return nil
	}
	return result.DurationMillis()
}
