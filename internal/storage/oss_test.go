package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Seemerry/VideoCapsule/internal/config"
	"github.com/Seemerry/VideoCapsule/internal/utils"
)

func TestNewUploader_NotConfigured(t *testing.T) {
	cases := []config.OSSConfig{
		{},
		{AccessKeyID: "id"},
		{AccessKeyID: "id", AccessKeySecret: "secret"},
		{AccessKeyID: "id", AccessKeySecret: "secret", BucketName: "bucket"},
	}
	for _, cfg := range cases {
		_, err := NewUploader(&cfg, zap.NewNop())
		assert.ErrorIs(t, err, utils.ErrOSSNotConfigured)
	}
}

func TestNewUploader_Configured(t *testing.T) {
	u, err := NewUploader(&config.OSSConfig{
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		BucketName:      "bucket",
		Endpoint:        "oss-cn-hangzhou.aliyuncs.com",
		ExpireHours:     2,
	}, zap.NewNop())

	assert.NoError(t, err)
	assert.NotNil(t, u)
}
