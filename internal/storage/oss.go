// Package storage 阿里云OSS上传。
// 转录服务只接受公网可达的音频URL，本地文件与受限链接都要先经这里中转
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

// UploadResult 上传结果
type UploadResult struct {
	URL       string // 带签名的临时访问URL
	ObjectKey string
}

// Uploader OSS文件上传器
type Uploader struct {
	bucket      *oss.Bucket
	expireHours int
	logger      *zap.Logger
}

// NewUploader 创建OSS上传器。配置不完整返回 ErrOSSNotConfigured
func NewUploader(cfg *config.OSSConfig, logger *zap.Logger) (*Uploader, error) {
	if cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" || cfg.BucketName == "" || cfg.Endpoint == "" {
		return nil, utils.ErrOSSNotConfigured
	}

	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss client init failed: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("oss bucket init failed: %w", err)
	}

	return &Uploader{
		bucket:      bucket,
		expireHours: cfg.ExpireHours,
		logger:      logger,
	}, nil
}

// UploadFile 上传本地文件并生成带签名的临时URL。
// 对象键带日期前缀，便于按天清理遗留对象
func (u *Uploader) UploadFile(ctx context.Context, localPath string) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(localPath))
	objectKey := fmt.Sprintf("temp/%s/%s%s",
		time.Now().Format("20060102"),
		uuid.New().String()[:8],
		ext)

	if err := u.bucket.PutObjectFromFile(objectKey, localPath, oss.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("oss upload failed: %w", err)
	}

	signedURL, err := u.bucket.SignURL(objectKey, oss.HTTPGet, int64(u.expireHours)*3600)
	if err != nil {
		// 已上传的对象不能留，签名失败也要清掉
		u.Delete(objectKey)
		return nil, fmt.Errorf("oss sign url failed: %w", err)
	}

	u.logger.Debug("file uploaded to oss",
		zap.String("file", localPath),
		zap.String("object_key", objectKey))

	return &UploadResult{URL: signedURL, ObjectKey: objectKey}, nil
}

// Delete 删除OSS对象。失败只记日志，遗留对象靠TTL策略兜底
func (u *Uploader) Delete(objectKey string) {
	if err := u.bucket.DeleteObject(objectKey); err != nil {
		u.logger.Warn("oss delete failed",
			zap.String("object_key", objectKey),
			zap.Error(err))
	}
}
