package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/service"
)

var (
	flagModel        string
	flagSpeakerInfo  bool
	flagConfig       string
	flagOutput       string
	flagNoTranscribe bool
	flagFormat       bool
	flagNote         bool
	flagSkipCache    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "capsule [链接、分享文本或本地视频路径]",
		Short: "短视频信息提取器 - 支持抖音、Bilibili、小红书、快手和本地视频",
		Long: `短视频信息提取器。输入分享文本、链接或本地视频文件路径，
输出统一的视频信息JSON，可选音频转录、DeepSeek富化与Markdown笔记生成。`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExtract,
		// 业务失败通过JSON的status字段表达，不需要cobra打印用法
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&flagModel, "model", "m", "doubao", "转录模型 (doubao / paraformer)")
	rootCmd.Flags().BoolVarP(&flagSpeakerInfo, "speaker-info", "s", false, "启用说话人识别")
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "配置文件路径")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "结果JSON输出文件（默认标准输出）")
	rootCmd.Flags().BoolVar(&flagNoTranscribe, "no-transcribe", false, "仅解析链接，不进行音频转录")
	rootCmd.Flags().BoolVar(&flagFormat, "format", false, "启用DeepSeek富化（摘要与排版）")
	rootCmd.Flags().BoolVar(&flagNote, "note", false, "生成Markdown笔记与附属资产")
	rootCmd.Flags().BoolVar(&flagSkipCache, "skip-cache", false, "跳过解析缓存")

	mindmapCmd := &cobra.Command{
		Use:   "mindmap <mindmap.md 源文件路径>",
		Short: "从已有源文件重新渲染思维导图PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  runMindmap,
	}
	mindmapCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "配置文件路径")
	rootCmd.AddCommand(mindmapCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	input, err := readInput(args)
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if flagModel != "doubao" && flagModel != "paraformer" {
		return fmt.Errorf("未知的转录模型: %s", flagModel)
	}

	svc := service.NewExtractService(cfg, logger)
	record := svc.Extract(context.Background(), input, service.Options{
		Model:       flagModel,
		SpeakerInfo: flagSpeakerInfo,
		Transcribe:  !flagNoTranscribe,
		Enrich:      flagFormat,
		SkipCache:   flagSkipCache,
	})

	if flagNote && record.Status.Success {
		if _, err := svc.GenerateNote(context.Background(), record); err != nil {
			logger.Warn("note generation failed", zap.Error(err))
		}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	// 业务失败也输出结构化JSON，由 status.success 表达，不用退出码
	return writeOutput(string(data))
}

func runMindmap(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	svc := service.NewExtractService(cfg, logger)
	imagePath, err := svc.RegenerateMindmap(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(imagePath)
	return nil
}

// setup 加载配置并初始化日志。
// 日志走标准错误，标准输出只留给结果JSON
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return nil, nil, err
	}

	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	if cfg.Verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := logCfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg, logger, nil
}

// readInput 位置参数优先，缺省时读标准输入（便于管道传分享文本）
func readInput(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	input := strings.TrimSpace(string(data))
	if input == "" {
		return "", fmt.Errorf("未提供视频链接")
	}
	return input, nil
}

func writeOutput(content string) error {
	if flagOutput == "" {
		fmt.Println(content)
		return nil
	}
	if err := os.WriteFile(flagOutput, []byte(content), 0o644); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "结果已保存到:", flagOutput)
	return nil
}
