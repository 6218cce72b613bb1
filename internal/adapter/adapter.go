package adapter

import (
	"context"

	"github.com/Seemerry/VideoCapsule/internal/models"
)

// Adapter 平台适配器接口。
// 四种检索策略内部差异很大，但共用同一输出契约：
// 解析成功与否都尽量返回一条 VideoRecord，缺失字段置空而非中断
type Adapter interface {
	// Parse 解析资源定位符，产出统一视频记录
	Parse(ctx context.Context, url string) (*models.VideoRecord, error)
}
