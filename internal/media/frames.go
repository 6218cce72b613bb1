package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/download"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

// Frame 提取出的单帧图片
type Frame struct {
	TimestampMs  int64
	ImagePath    string
	RelativePath string
	Label        string
}

// FrameExtractor 关键时刻帧截取器。
// 远程视频先落盘再截帧，ffmpeg 对部分 CDN 的 range 请求支持不稳
type FrameExtractor struct {
	ffmpegPath string
	downloader *download.Downloader
	cfg        *config.MediaConfig
	logger     *zap.Logger
}

// NewFrameExtractor 创建帧截取器
func NewFrameExtractor(cfg *config.MediaConfig, dl *download.Downloader, logger *zap.Logger) *FrameExtractor {
	return &FrameExtractor{
		ffmpegPath: cfg.FFmpegPath,
		downloader: dl,
		cfg:        cfg,
		logger:     logger,
	}
}

// ExtractFrames 按时间戳列表截取帧图片，存入 <title>_assets 子目录。
// 单帧失败只跳过该帧，不中断整体
func (e *FrameExtractor) ExtractFrames(ctx context.Context, videoSource string, timestampsMs []int64, outputDir, title string) ([]Frame, error) {
	if len(timestampsMs) == 0 {
		return nil, nil
	}

	safeTitle := utils.SanitizeFilename(title)
	assetsDir := filepath.Join(outputDir, safeTitle+"_assets")
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return nil, err
	}

	videoPath := videoSource
	if _, err := os.Stat(videoSource); err != nil {
		tmp, err := e.downloader.FetchTemp(ctx, videoSource)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		videoPath = tmp
	}

	var frames []Frame
	for i, tsMs := range timestampsMs {
		filename := frameFilename(i, tsMs)
		outputPath := filepath.Join(assetsDir, filename)

		if err := e.extractSingleFrame(ctx, videoPath, tsMs, outputPath); err != nil {
			e.logger.Warn("frame extraction failed",
				zap.String("label", FormatTimestampLabel(tsMs)),
				zap.Error(err))
			continue
		}

		abs, err := filepath.Abs(outputPath)
		if err != nil {
			abs = outputPath
		}
		frames = append(frames, Frame{
			TimestampMs:  tsMs,
			ImagePath:    abs,
			RelativePath: safeTitle + "_assets/" + filename,
			Label:        FormatTimestampLabel(tsMs),
		})
	}
	return frames, nil
}

func (e *FrameExtractor) extractSingleFrame(ctx context.Context, videoPath string, timestampMs int64, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.GetTimeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-ss", fmt.Sprintf("%.3f", float64(timestampMs)/1000),
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		"-y",
		outputPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return utils.ErrTimeout
		}
		return fmt.Errorf("ffmpeg failed: %s", string(output))
	}
	if _, err := os.Stat(outputPath); err != nil {
		return utils.ErrFFmpegMissing
	}
	return nil
}

// FormatTimestampLabel 毫秒时间戳格式化为 mm:ss
func FormatTimestampLabel(timestampMs int64) string {
	total := timestampMs / 1000
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// frameFilename 帧图片文件名: frame_01_00m29s.jpg
func frameFilename(index int, timestampMs int64) string {
	total := timestampMs / 1000
	return fmt.Sprintf("frame_%02d_%02dm%02ds.jpg", index+1, total/60, total%60)
}
