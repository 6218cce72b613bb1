// Package transcribe 音频转文本。
// 两个可选引擎共用一个入口：引擎只接受公网URL，
// 本地文件与受限链接在这里统一经OSS中转，所有临时产物在转录结束后清理
package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/download"
	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/restricted"
	"github.com/Seemerry/VideoCapsule/internal/storage"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

// Options 转录选项
type Options struct {
	LanguageHints []string
	SpeakerInfo   bool
}

// Engine 转录引擎接口
type Engine interface {
	// Transcribe 转录公网可达的音频URL
	Transcribe(ctx context.Context, audioURL string, opts Options) (*models.Transcription, error)
	// Name 引擎标识
	Name() string
}

// Service 转录服务：源地址规整 + 引擎分发
type Service struct {
	engines    map[string]Engine
	uploader   *storage.Uploader // 未配置OSS时为 nil
	downloader *download.Downloader
	logger     *zap.Logger
}

// NewService 创建转录服务
func NewService(uploader *storage.Uploader, downloader *download.Downloader, logger *zap.Logger, engines ...Engine) *Service {
	m := make(map[string]Engine, len(engines))
	for _, e := range engines {
		m[e.Name()] = e
	}
	return &Service{
		engines:    m,
		uploader:   uploader,
		downloader: downloader,
		logger:     logger,
	}
}

// Run 转录音频源。audioSource 可以是本地路径、公网URL或受限URL
func (s *Service) Run(ctx context.Context, audioSource, model string, opts Options) (*models.Transcription, error) {
	engine, ok := s.engines[model]
	if !ok {
		return nil, fmt.Errorf("unknown transcribe model: %s", model)
	}
	if len(opts.LanguageHints) == 0 {
		opts.LanguageHints = []string{"zh", "en"}
	}

	audioURL, cleanup, err := s.prepareAudioURL(ctx, audioSource)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result, err := engine.Transcribe(ctx, audioURL, opts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("transcription finished",
		zap.String("engine", engine.Name()),
		zap.Int("segments", len(result.Segments)))
	return result, nil
}

// prepareAudioURL 把任意音频源规整为引擎可访问的公网URL。
// 返回的 cleanup 负责回收中转产生的临时文件与OSS对象，必须执行
func (s *Service) prepareAudioURL(ctx context.Context, audioSource string) (string, func(), error) {
	noop := func() {}

	if info, err := os.Stat(audioSource); err == nil && info.Mode().IsRegular() {
		if s.uploader == nil {
			return "", noop, utils.ErrOSSNotConfigured
		}
		upload, err := s.uploader.UploadFile(ctx, audioSource)
		if err != nil {
			return "", noop, err
		}
		return upload.URL, func() { s.uploader.Delete(upload.ObjectKey) }, nil
	}

	if restricted.Detect(audioSource) == nil {
		return audioSource, noop, nil
	}

	// 受限URL：引擎的服务端拉不动防盗链资源，先落地再经OSS中转
	s.logger.Info("restricted audio url, downloading for relay")
	if s.uploader == nil {
		return "", noop, utils.ErrOSSNotConfigured
	}

	tmpFile, err := s.downloader.FetchTemp(ctx, audioSource)
	if err != nil {
		return "", noop, fmt.Errorf("restricted audio download failed: %w", err)
	}

	upload, err := s.uploader.UploadFile(ctx, tmpFile)
	if err != nil {
		os.Remove(tmpFile)
		return "", noop, err
	}

	cleanup := func() {
		s.uploader.Delete(upload.ObjectKey)
		os.Remove(tmpFile)
	}
	return upload.URL, cleanup, nil
}

// buildSegmentText 把片段拼接为整体文本。
// 带说话人信息时加"发言人X："标签，相邻同一说话人只标一次
func buildSegmentText(segments []models.Segment) string {
	var parts []string
	lastSpeaker := ""
	labeled := false

	for _, seg := range segments {
		if seg.Speaker != "" && seg.Speaker != lastSpeaker {
			label := fmt.Sprintf("发言人%s： %s", seg.Speaker, seg.Text)
			if labeled {
				label = "\n" + label
			}
			parts = append(parts, label)
			lastSpeaker = seg.Speaker
			labeled = true
			continue
		}
		if seg.Speaker == "" {
			lastSpeaker = ""
		}
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, " ")
}
