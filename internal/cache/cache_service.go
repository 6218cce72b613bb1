package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Seemerry/VideoCapsule/internal/models"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

// Service 解析结果缓存服务。
// 缓存是可选能力：Redis 未配置时传入 nil client，所有操作返回未命中
type Service struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewService 创建缓存服务
func NewService(redisClient *redis.Client, ttl time.Duration) *Service {
	return &Service{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get 从缓存获取解析结果
func (s *Service) Get(ctx context.Context, url string) (*models.VideoRecord, error) {
	if s.redis == nil {
		return nil, utils.ErrCacheMiss
	}

	key := generateCacheKey(url)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, utils.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var record models.VideoRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &record, nil
}

// Set 将解析结果写入缓存。只缓存成功结果，失败记录不值得复用
func (s *Service) Set(ctx context.Context, url string, record *models.VideoRecord) error {
	if s.redis == nil || record == nil || !record.Status.Success {
		return nil
	}

	key := generateCacheKey(url)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Delete 删除缓存
func (s *Service) Delete(ctx context.Context, url string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, generateCacheKey(url)).Err()
}

// generateCacheKey 生成缓存key
func generateCacheKey(url string) string {
	hash := md5.Sum([]byte(url))
	return fmt.Sprintf("capsule:url:%x", hash)
}
