// Package service 提取流程编排：归类、取链、解析、转录、富化。
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/adapter"
	"github.com/Seemerry/VideoCapsule/internal/browser"
	"github.com/Seemerry/VideoCapsule/internal/cache"
	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/detector"
	"github.com/Seemerry/VideoCapsule/internal/download"
	"github.com/Seemerry/VideoCapsule/internal/formatter"
	"github.com/Seemerry/VideoCapsule/internal/markdown"
	"github.com/Seemerry/VideoCapsule/internal/media"
	"github.com/Seemerry/VideoCapsule/internal/mindmap"
	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/resolver"
	"github.com/Seemerry/VideoCapsule/internal/storage"
	"github.com/Seemerry/VideoCapsule/internal/transcribe"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

// 关键画面节点上限
const maxKeyMoments = 8

// Options 单次提取的选项
type Options struct {
	Model       string // 转录引擎: doubao / paraformer
	SpeakerInfo bool
	Transcribe  bool
	Enrich      bool // DeepSeek 富化（摘要/排版/导图源）
	SkipCache   bool
}

// ExtractService 提取服务
type ExtractService struct {
	detector    *detector.PlatformDetector
	cache       *cache.Service
	adapters    map[models.Platform]adapter.Adapter
	transcriber *transcribe.Service
	formatter   *formatter.Formatter
	frames      *media.FrameExtractor
	mindmap     *mindmap.Generator
	markdown    *markdown.Generator
	logger      *zap.Logger
}

// NewExtractService 创建提取服务并装配各平台适配器
func NewExtractService(cfg *config.Config, logger *zap.Logger) *ExtractService {
	b := browser.New(&cfg.Browser, logger)
	res := resolver.New(cfg.HTTP.GetHTTPTimeout(), logger)
	downloader := download.NewDownloader(cfg.HTTP.GetDownloadTimeout(), logger)
	prober := media.NewProber(&cfg.Media, logger)

	adapters := make(map[models.Platform]adapter.Adapter)
	if pc, ok := cfg.Platforms["douyin"]; ok && pc.Enabled {
		adapters[models.PlatformDouyin] = adapter.NewDouyinAdapter(b, cfg.Browser.GetSettleDelay(), logger)
	}
	if pc, ok := cfg.Platforms["bilibili"]; ok && pc.Enabled {
		adapters[models.PlatformBilibili] = adapter.NewBilibiliAdapter(cfg.HTTP.GetHTTPTimeout(), res, pc.APIBaseURL, logger)
	}
	if pc, ok := cfg.Platforms["xiaohongshu"]; ok && pc.Enabled {
		adapters[models.PlatformXiaohongshu] = adapter.NewXiaohongshuAdapter(cfg.HTTP.GetHTTPTimeout(), res, logger)
	}
	if pc, ok := cfg.Platforms["kuaishou"]; ok && pc.Enabled {
		adapters[models.PlatformKuaishou] = adapter.NewKuaishouAdapter(b, cfg.Browser.GetSettleDelay(), logger)
	}
	if pc, ok := cfg.Platforms["local"]; ok && pc.Enabled {
		adapters[models.PlatformLocal] = adapter.NewLocalAdapter(prober, logger)
	}

	// OSS 未配置是常态，转录到本地/受限源时才会真正需要
	uploader, err := storage.NewUploader(&cfg.OSS, logger)
	if err != nil {
		if !errors.Is(err, utils.ErrOSSNotConfigured) {
			logger.Warn("oss init failed", zap.Error(err))
		}
		uploader = nil
	}

	transcriber := transcribe.NewService(uploader, downloader, logger,
		transcribe.NewDoubaoEngine(&cfg.Transcribe.Doubao, logger),
		transcribe.NewParaformerEngine(&cfg.Transcribe.DashScope, logger),
	)

	var redisClient *redis.Client
	if cfg.Cache.Enabled && cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	}

	return &ExtractService{
		detector:    detector.NewPlatformDetector(),
		cache:       cache.NewService(redisClient, cfg.Cache.GetCacheTTL()),
		adapters:    adapters,
		transcriber: transcriber,
		formatter:   formatter.New(&cfg.DeepSeek, logger),
		frames:      media.NewFrameExtractor(&cfg.Media, downloader, logger),
		mindmap:     mindmap.NewGenerator(b, logger),
		markdown:    markdown.NewGenerator(&cfg.Output, logger),
		logger:      logger,
	}
}

// Extract 执行完整提取流程。
// 所有业务失败都折叠进记录的状态字段，返回值永远是一条可序列化的记录
func (s *ExtractService) Extract(ctx context.Context, input string, opts Options) *models.VideoRecord {
	platform := s.detector.Detect(input)
	if platform == models.PlatformUnknown {
		record := models.NewFailedRecord("无法识别的平台或链接")
		record.Platform = models.PlatformUnknown
		return record
	}

	target := detector.ExtractURL(input, platform)
	if target == "" {
		record := models.NewFailedRecord("未能从输入中提取出有效的视频链接")
		record.Platform = platform
		return record
	}

	if platform != models.PlatformLocal {
		target = utils.NormalizeURL(target)
		if !utils.IsValidURL(target) {
			record := models.NewFailedRecord("未能从输入中提取出有效的视频链接")
			record.Platform = platform
			return record
		}
	}

	record := s.parse(ctx, platform, target, opts.SkipCache)
	record.Platform = platform
	if !record.Status.Success {
		return record
	}

	s.splitTitleTag(record, platform)

	// 音频缺失时回填视频地址，该替换只发生在这一处
	if record.URLs.AudioURL == "" && record.URLs.VideoURL != "" {
		record.URLs.AudioURL = record.URLs.VideoURL
	}

	if opts.Transcribe && !record.IsImageNote() {
		s.runTranscription(ctx, record, opts)
	}

	if opts.Enrich && record.Transcription != nil {
		s.runEnrichment(ctx, record)
	}

	return record
}

// parse 缓存优先的解析。缓存键是规整后的目标地址
func (s *ExtractService) parse(ctx context.Context, platform models.Platform, target string, skipCache bool) *models.VideoRecord {
	adpt, ok := s.adapters[platform]
	if !ok {
		return models.NewFailedRecord(fmt.Sprintf("平台未启用: %s", platform))
	}

	if !skipCache && platform != models.PlatformLocal {
		if cached, err := s.cache.Get(ctx, target); err == nil {
			s.logger.Info("cache hit", zap.String("url", target))
			return cached
		}
	}

	s.logger.Info("parsing",
		zap.String("platform", string(platform)),
		zap.String("target", target))

	record, err := adpt.Parse(ctx, target)
	if err != nil {
		s.logger.Error("parse failed", zap.String("target", target), zap.Error(err))
		return models.NewFailedRecord(fmt.Sprintf("解析异常: %v", err))
	}

	if record.Status.Success && platform != models.PlatformLocal {
		if err := s.cache.Set(ctx, target, record); err != nil {
			s.logger.Warn("cache set failed", zap.Error(err))
		}
	}
	return record
}

// splitTitleTag 标题标签拆分。适配器已给出结构化标签的不再覆盖
func (s *ExtractService) splitTitleTag(record *models.VideoRecord, platform models.Platform) {
	if record.Content.Tag != nil || record.Content.Title == "" {
		return
	}
	withBrackets := platform == models.PlatformXiaohongshu
	title, tag := utils.ParseTitleAndTag(record.Content.Title, withBrackets)
	record.Content.Title = title
	record.Content.Tag = tag
}

// runTranscription 转录失败不影响解析结果，错误记入独立字段
func (s *ExtractService) runTranscription(ctx context.Context, record *models.VideoRecord, opts Options) {
	audioURL := record.URLs.AudioURL
	if audioURL == "" {
		record.Status.TranscriptionError = "未能获取到音频URL"
		return
	}

	result, err := s.transcriber.Run(ctx, audioURL, opts.Model, transcribe.Options{
		SpeakerInfo: opts.SpeakerInfo,
	})
	if err != nil {
		s.logger.Warn("transcription failed", zap.Error(err))
		record.Status.TranscriptionError = err.Error()
		return
	}
	record.Transcription = result
}

// runEnrichment DeepSeek 富化，尽力而为
func (s *ExtractService) runEnrichment(ctx context.Context, record *models.VideoRecord) {
	if !s.formatter.Enabled() {
		s.logger.Info("deepseek not configured, skipping enrichment")
		return
	}

	rawText := record.Transcription.Text
	title := record.Content.Title

	enrichment := &models.Enrichment{
		Summary:       s.formatter.GenerateSummary(ctx, rawText, title),
		FormattedText: s.formatter.FormatText(ctx, rawText, title),
		MindmapSource: s.formatter.GenerateMindmapSource(ctx, rawText, title),
	}
	if enrichment.Summary == "" && enrichment.FormattedText == "" && enrichment.MindmapSource == "" {
		return
	}
	record.Enrichment = enrichment
}

// GenerateNote 渲染 Markdown 笔记及附属资产（关键画面、思维导图）。
// 附属资产逐项尽力而为，任何一项失败都不阻止笔记本体落盘
func (s *ExtractService) GenerateNote(ctx context.Context, record *models.VideoRecord) (string, error) {
	if record == nil || !record.Status.Success {
		return "", fmt.Errorf("无法为失败的解析结果生成笔记")
	}

	extras := &markdown.Extras{}
	if record.Enrichment != nil {
		extras.Summary = record.Enrichment.Summary
		extras.FormattedText = record.Enrichment.FormattedText
	}

	outputDir := s.markdown.OutputDir()
	title := record.Content.Title

	if record.Transcription != nil && record.URLs.VideoURL != "" && !record.IsImageNote() {
		moments := s.formatter.IdentifyKeyMoments(ctx, record.Transcription.Segments, maxKeyMoments)
		if len(moments) > 0 {
			timestamps := make([]int64, 0, len(moments))
			for _, m := range moments {
				timestamps = append(timestamps, m.TimestampMs)
			}
			frames, err := s.frames.ExtractFrames(ctx, record.URLs.VideoURL, timestamps, outputDir, title)
			if err != nil {
				s.logger.Warn("frame extraction skipped", zap.Error(err))
			}
			extras.Frames = frames
		}
	}

	if record.Enrichment != nil && record.Enrichment.MindmapSource != "" {
		result, err := s.mindmap.Generate(ctx, record.Enrichment.MindmapSource, outputDir, title)
		if err != nil {
			s.logger.Warn("mindmap generation skipped", zap.Error(err))
		} else {
			extras.MindmapImagePath = result.ImageRelativePath
			extras.MindmapSourcePath = result.SourceRelativePath
		}
	}

	return s.markdown.Generate(record, extras)
}

// RegenerateMindmap 从已有源文件重渲导图
func (s *ExtractService) RegenerateMindmap(ctx context.Context, sourcePath string) (string, error) {
	return s.mindmap.Regenerate(ctx, sourcePath)
}
