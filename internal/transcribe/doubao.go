package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

// 豆包接口用响应头 X-Api-Status-Code 传状态，响应体仅在完成时有内容
const (
	doubaoStatusOK      = "20000000"
	doubaoStatusQueued  = "20000001"
	doubaoStatusRunning = "20000002"
)

// DoubaoEngine 豆包大模型语音识别引擎。
// 提交-轮询模式，提交与查询用同一个请求ID关联
type DoubaoEngine struct {
	cfg    *config.DoubaoConfig
	client *http.Client
	logger *zap.Logger
}

// NewDoubaoEngine 创建豆包引擎
func NewDoubaoEngine(cfg *config.DoubaoConfig, logger *zap.Logger) *DoubaoEngine {
	return &DoubaoEngine{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Name 引擎标识
func (e *DoubaoEngine) Name() string { return "doubao" }

type doubaoSubmitRequest struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	Audio struct {
		URL    string `json:"url"`
		Format string `json:"format"`
	} `json:"audio"`
	Request map[string]interface{} `json:"request"`
}

type doubaoQueryResponse struct {
	Result struct {
		Utterances []struct {
			Text      string `json:"text"`
			StartTime int64  `json:"start_time"`
			EndTime   int64  `json:"end_time"`
			Additions struct {
				Speaker string `json:"speaker"`
			} `json:"additions"`
		} `json:"utterances"`
	} `json:"result"`
}

// Transcribe 提交转录任务并轮询结果
func (e *DoubaoEngine) Transcribe(ctx context.Context, audioURL string, opts Options) (*models.Transcription, error) {
	requestID := uuid.New().String()

	if err := e.submit(ctx, requestID, audioURL, opts); err != nil {
		return nil, err
	}

	interval := time.Duration(e.cfg.PollInterval) * time.Second
	for i := 0; i < e.cfg.MaxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		status, body, err := e.query(ctx, requestID)
		if err != nil {
			return nil, err
		}

		switch status {
		case doubaoStatusOK:
			return e.parseResult(audioURL, body)
		case doubaoStatusQueued, doubaoStatusRunning:
			continue
		default:
			return nil, fmt.Errorf("%w: doubao status %s", utils.ErrTranscribeFailed, status)
		}
	}

	return nil, fmt.Errorf("%w: doubao polling exhausted", utils.ErrTranscribeFailed)
}

func (e *DoubaoEngine) submit(ctx context.Context, requestID, audioURL string, opts Options) error {
	var submitReq doubaoSubmitRequest
	submitReq.User.UID = "doubao_user"
	submitReq.Audio.URL = audioURL
	submitReq.Audio.Format = "mp3"
	submitReq.Request = map[string]interface{}{
		"model_name": "bigmodel",
		"enable_itn": true,
	}
	if opts.SpeakerInfo {
		submitReq.Request["enable_speaker_info"] = true
	}

	status, _, err := e.post(ctx, e.cfg.SubmitEndpoint, requestID, submitReq)
	if err != nil {
		return err
	}
	if status != doubaoStatusOK {
		return fmt.Errorf("%w: doubao submit status %s", utils.ErrTranscribeFailed, status)
	}
	return nil
}

func (e *DoubaoEngine) query(ctx context.Context, requestID string) (string, []byte, error) {
	return e.post(ctx, e.cfg.QueryEndpoint, requestID, map[string]interface{}{})
}

func (e *DoubaoEngine) post(ctx context.Context, endpoint, requestID string, payload interface{}) (string, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-App-Key", e.cfg.AppID)
	req.Header.Set("X-Api-Access-Key", e.cfg.AccessToken)
	req.Header.Set("X-Api-Resource-Id", e.cfg.ResourceID)
	req.Header.Set("X-Api-Request-Id", requestID)
	req.Header.Set("X-Api-Sequence", "-1")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}
	return resp.Header.Get("X-Api-Status-Code"), body, nil
}

func (e *DoubaoEngine) parseResult(audioURL string, body []byte) (*models.Transcription, error) {
	var result doubaoQueryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse doubao result: %w", err)
	}

	segments := make([]models.Segment, 0, len(result.Result.Utterances))
	for _, u := range result.Result.Utterances {
		segments = append(segments, models.Segment{
			Text:    u.Text,
			Start:   u.StartTime,
			End:     u.EndTime,
			Speaker: u.Additions.Speaker,
		})
	}

	return &models.Transcription{
		URL:      audioURL,
		Text:     buildSegmentText(segments),
		Segments: segments,
	}, nil
}
