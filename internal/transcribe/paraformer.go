package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

// ParaformerEngine DashScope paraformer-v2 引擎。
// 异步任务模式：建任务、轮询任务状态、再拉取结果文件
type ParaformerEngine struct {
	cfg    *config.DashScopeConfig
	client *http.Client
	logger *zap.Logger
}

// NewParaformerEngine 创建paraformer引擎
func NewParaformerEngine(cfg *config.DashScopeConfig, logger *zap.Logger) *ParaformerEngine {
	return &ParaformerEngine{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Name 引擎标识
func (e *ParaformerEngine) Name() string { return "paraformer" }

type dashscopeTaskResponse struct {
	Output struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
		Results    []struct {
			FileURL          string `json:"file_url"`
			TranscriptionURL string `json:"transcription_url"`
			SubtaskStatus    string `json:"subtask_status"`
		} `json:"results"`
	} `json:"output"`
	Message string `json:"message"`
}

type paraformerTranscript struct {
	Transcripts []struct {
		Sentences []struct {
			Text      string      `json:"text"`
			BeginTime int64       `json:"begin_time"`
			EndTime   int64       `json:"end_time"`
			Speaker   interface{} `json:"speaker"` // 数字或字符串
		} `json:"sentences"`
	} `json:"transcripts"`
}

// Transcribe 创建异步转录任务并等待完成
func (e *ParaformerEngine) Transcribe(ctx context.Context, audioURL string, opts Options) (*models.Transcription, error) {
	taskID, err := e.createTask(ctx, audioURL, opts)
	if err != nil {
		return nil, err
	}

	interval := time.Duration(e.cfg.PollInterval) * time.Second
	for i := 0; i < e.cfg.MaxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		task, err := e.queryTask(ctx, taskID)
		if err != nil {
			return nil, err
		}

		switch task.Output.TaskStatus {
		case "SUCCEEDED":
			return e.fetchTranscript(ctx, audioURL, task)
		case "FAILED":
			return nil, fmt.Errorf("%w: paraformer task failed: %s", utils.ErrTranscribeFailed, task.Message)
		default:
			// PENDING / RUNNING
		}
	}

	return nil, fmt.Errorf("%w: paraformer polling exhausted", utils.ErrTranscribeFailed)
}

func (e *ParaformerEngine) createTask(ctx context.Context, audioURL string, opts Options) (string, error) {
	payload := map[string]interface{}{
		"model": "paraformer-v2",
		"input": map[string]interface{}{
			"file_urls": []string{audioURL},
		},
		"parameters": map[string]interface{}{
			"language_hints": opts.LanguageHints,
		},
	}
	if opts.SpeakerInfo {
		payload["parameters"].(map[string]interface{})["speaker_detection_enabled"] = true
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := e.cfg.Endpoint + "/api/v1/services/audio/asr/transcription"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	req.Header.Set("X-DashScope-Async", "enable")

	var task dashscopeTaskResponse
	if err := e.do(req, &task); err != nil {
		return "", err
	}
	if task.Output.TaskID == "" {
		return "", fmt.Errorf("%w: paraformer task creation failed: %s", utils.ErrTranscribeFailed, task.Message)
	}
	return task.Output.TaskID, nil
}

func (e *ParaformerEngine) queryTask(ctx context.Context, taskID string) (*dashscopeTaskResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/tasks/%s", e.cfg.Endpoint, taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	var task dashscopeTaskResponse
	if err := e.do(req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// fetchTranscript 任务完成后结果在独立的结果文件里，需要再拉一次
func (e *ParaformerEngine) fetchTranscript(ctx context.Context, audioURL string, task *dashscopeTaskResponse) (*models.Transcription, error) {
	for _, res := range task.Output.Results {
		if res.TranscriptionURL == "" {
			continue
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.TranscriptionURL, nil)
		if err != nil {
			continue
		}

		var transcript paraformerTranscript
		if err := e.do(req, &transcript); err != nil {
			e.logger.Warn("transcript fetch failed", zap.Error(err))
			continue
		}

		for _, t := range transcript.Transcripts {
			if len(t.Sentences) == 0 {
				continue
			}

			segments := make([]models.Segment, 0, len(t.Sentences))
			for _, sentence := range t.Sentences {
				seg := models.Segment{
					Text:  sentence.Text,
					Start: sentence.BeginTime,
					End:   sentence.EndTime,
				}
				switch v := sentence.Speaker.(type) {
				case string:
					seg.Speaker = v
				case float64:
					seg.Speaker = fmt.Sprintf("%d", int64(v))
				}
				segments = append(segments, seg)
			}

			return &models.Transcription{
				URL:      audioURL,
				Text:     buildSegmentText(segments),
				Segments: segments,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: paraformer returned no transcript", utils.ErrTranscribeFailed)
}

func (e *ParaformerEngine) do(req *http.Request, out interface{}) error {
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
