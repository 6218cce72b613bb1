// Package formatter 使用 DeepSeek 对转录文本做富化：
// 摘要、排版、关键节点识别、思维导图源。
// 所有调用都是尽力而为，API 未配置或失败时返回空结果不中断主流程
package formatter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/models"
)

const (
	summarySystemPrompt = `你是一个专业的内容摘要助手。你的任务是对视频转录文本进行摘要提炼，帮助读者快速了解视频核心内容。

请严格遵守以下规则：
1. 提炼视频的**核心主题**和**关键观点**
2. 摘要应简洁明了，控制在200-400字之间
3. 使用条理清晰的段落或要点形式呈现
4. 对**关键人物、重要数据、核心概念**使用加粗格式（**文字**）
5. 输出格式为 Markdown
6. 不要添加任何标题（如"摘要"等），直接输出摘要内容`

	formatSystemPrompt = `你是一个专业的文字排版助手。你的任务是对语音转文字的内容进行排版优化，使其更适合阅读。

请严格遵守以下规则：
1. **绝对不能修改、删减或添加任何原文内容**，必须保留每一个字句
2. 对文本进行合理的段落划分，根据语义和话题进行换行
3. 对**重点语句、核心观点、关键信息**使用加粗格式（**文字**）
4. 可以适当添加空行来分隔不同的段落或话题
5. 如果有明显的对话或问答，可以用空行分隔
6. 输出格式必须为 Markdown
7. 不要添加任何标题、解释性文字或前言后语，只输出排版后的内容`

	keyMomentsSystemPrompt = `你是一个专业的视频内容分析助手。你的任务是从视频转录片段中识别出最重要的关键节点。

请严格遵守以下规则：
1. 从给定的编号片段列表中选出最关键的节点（不超过指定数量）
2. 选择标准：重要转折点、核心论点、关键事件、精彩观点
3. 选出的节点应在整个文本中均匀分布，不要集中在某一段
4. 只返回一个 JSON 数组，格式为：[{"segment_index": N, "reason": "简短理由"}]
5. segment_index 必须是片段列表中的编号数字
6. 不要添加任何解释性文字，只输出 JSON 数组`

	mindmapSystemPrompt = `你是一个专业的知识结构化助手。你的任务是把视频转录内容整理成思维导图的 Markdown 源文件。

请严格遵守以下规则：
1. 第一行是一级标题（# 主题），概括视频主题
2. 用 Markdown 多级标题和列表组织层级，深度不超过4层
3. 每个节点只放一个短语或短句，不要长段文字
4. 覆盖视频的主要论点和结构，忽略口语化的冗余内容
5. 不要添加任何解释性文字，只输出 Markdown`
)

var (
	codeFenceOpen  = regexp.MustCompile("^```(?:json)?\\s*")
	codeFenceClose = regexp.MustCompile("\\s*```$")
	jsonArray      = regexp.MustCompile(`(?s)\[.*\]`)
)

// KeyMoment 识别出的关键节点
type KeyMoment struct {
	Text         string
	TimestampMs  int64
	SegmentIndex int
}

// Formatter DeepSeek 文本富化器
type Formatter struct {
	cfg    *config.DeepSeekConfig
	client *http.Client
	logger *zap.Logger
}

// New 创建富化器
func New(cfg *config.DeepSeekConfig, logger *zap.Logger) *Formatter {
	return &Formatter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.GetTimeout()},
		logger: logger,
	}
}

// Enabled 是否已配置可用
func (f *Formatter) Enabled() bool {
	return f.cfg.APIKey != ""
}

// GenerateSummary 生成内容摘要
func (f *Formatter) GenerateSummary(ctx context.Context, rawText, title string) string {
	if !f.Enabled() || rawText == "" {
		return ""
	}
	return f.callAPI(ctx, summarySystemPrompt, withTitle(title, "请为以下视频内容生成摘要：\n\n"+rawText))
}

// FormatText 排版优化转录原文
func (f *Formatter) FormatText(ctx context.Context, rawText, title string) string {
	if !f.Enabled() || rawText == "" {
		return ""
	}
	return f.callAPI(ctx, formatSystemPrompt, withTitle(title, "请对以下语音转文字内容进行排版优化：\n\n"+rawText))
}

// GenerateMindmapSource 生成思维导图 Markdown 源
func (f *Formatter) GenerateMindmapSource(ctx context.Context, rawText, title string) string {
	if !f.Enabled() || rawText == "" {
		return ""
	}
	return f.callAPI(ctx, mindmapSystemPrompt, withTitle(title, "请把以下视频内容整理成思维导图：\n\n"+rawText))
}

// IdentifyKeyMoments 从转录片段中识别关键节点。
// 模型只返回片段编号，时间戳从原始片段反查，避免模型编造时间
func (f *Formatter) IdentifyKeyMoments(ctx context.Context, segments []models.Segment, maxMoments int) []KeyMoment {
	if !f.Enabled() || len(segments) == 0 {
		return nil
	}

	var lines []string
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text != "" {
			lines = append(lines, fmt.Sprintf("[%d] %s", i, text))
		}
	}
	if len(lines) == 0 {
		return nil
	}

	userPrompt := fmt.Sprintf("请从以下视频转录片段中选出最多 %d 个关键节点：\n\n%s",
		maxMoments, strings.Join(lines, "\n"))

	response := f.callAPI(ctx, keyMomentsSystemPrompt, userPrompt)
	if response == "" {
		return nil
	}
	return parseKeyMoments(response, segments)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// callAPI 调用 chat completions 接口，失败返回空串
func (f *Formatter) callAPI(ctx context.Context, systemPrompt, userPrompt string) string {
	payload := chatRequest{
		Model: f.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.APIBase+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+f.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("deepseek request failed", zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("deepseek api error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return ""
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil || len(chat.Choices) == 0 {
		return ""
	}
	return chat.Choices[0].Message.Content
}

// parseKeyMoments 解析模型返回的 JSON 数组，容忍代码围栏与前后杂质
func parseKeyMoments(response string, segments []models.Segment) []KeyMoment {
	cleaned := strings.TrimSpace(response)
	cleaned = codeFenceOpen.ReplaceAllString(cleaned, "")
	cleaned = codeFenceClose.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	var raw []struct {
		SegmentIndex *int   `json:"segment_index"`
		Reason       string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		m := jsonArray.FindString(cleaned)
		if m == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(m), &raw); err != nil {
			return nil
		}
	}

	var moments []KeyMoment
	for _, item := range raw {
		if item.SegmentIndex == nil {
			continue
		}
		idx := *item.SegmentIndex
		if idx < 0 || idx >= len(segments) {
			continue
		}
		moments = append(moments, KeyMoment{
			Text:         segments[idx].Text,
			TimestampMs:  segments[idx].Start,
			SegmentIndex: idx,
		})
	}
	return moments
}

func withTitle(title, prompt string) string {
	if title == "" {
		return prompt
	}
	return "视频标题：" + title + "\n\n" + prompt
}
