package models

// Platform 平台标识
type Platform string

const (
	PlatformDouyin      Platform = "douyin"
	PlatformBilibili    Platform = "bilibili"
	PlatformXiaohongshu Platform = "xiaohongshu"
	PlatformKuaishou    Platform = "kuaishou"
	PlatformLocal       Platform = "local"
	PlatformUnknown     Platform = "unknown"
)

// NoteType 笔记类型
type NoteType string

const (
	NoteTypeVideo NoteType = "video"
	NoteTypeImage NoteType = "image"
)

// Status 解析状态与错误信息
type Status struct {
	Success            bool   `json:"success"`
	Error              string `json:"error,omitempty"`
	TranscriptionError string `json:"transcription_error,omitempty"`
}

// URLs 各类资源链接。字段均可空，消费方必须判空
type URLs struct {
	VideoURL string   `json:"video_url,omitempty"`
	AudioURL string   `json:"audio_url,omitempty"`
	CoverURL string   `json:"cover_url,omitempty"`
	FinalURL string   `json:"final_url,omitempty"`
	Images   []string `json:"images,omitempty"`
}

// Content 内容信息。Tag 为 nil 表示源数据无可提取标签，与空串语义不同
type Content struct {
	Title    string   `json:"title"`
	Desc     string   `json:"desc,omitempty"`
	Tag      *string  `json:"tag,omitempty"`
	NoteType NoteType `json:"note_type,omitempty"`
}

// AuthorInfo 作者信息
type AuthorInfo struct {
	Author   string `json:"author,omitempty"`
	AuthorID string `json:"author_id,omitempty"`
}

// Statistics 统计数据。本地文件策略下全部为 nil
type Statistics struct {
	LikeCount    *int64 `json:"like_count"`
	CommentCount *int64 `json:"comment_count"`
	ShareCount   *int64 `json:"share_count"`
	CollectCount *int64 `json:"collect_count"`
}

// VideoDetail 视频详情
type VideoDetail struct {
	Duration   *int64 `json:"duration,omitempty"` // 毫秒
	VideoID    string `json:"video_id,omitempty"`
	CreateTime *int64 `json:"create_time,omitempty"` // Unix 秒
}

// MusicInfo 背景音乐信息
type MusicInfo struct {
	Music string `json:"music,omitempty"`
}

// Segment 转录片段，时间单位毫秒
type Segment struct {
	Text    string `json:"text"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Speaker string `json:"speaker,omitempty"`
}

// Transcription 转录结果
type Transcription struct {
	URL      string    `json:"url"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Enrichment DeepSeek 富化结果（摘要/排版/思维导图源）
type Enrichment struct {
	Summary       string `json:"summary,omitempty"`
	FormattedText string `json:"formatted_text,omitempty"`
	MindmapSource string `json:"mindmap_source,omitempty"`
}

// VideoRecord 统一视频记录：所有检索策略共用的唯一输出契约。
// 每次解析构造一个全新实例，策略填充后经标题/标签拆分与音频回填，
// 最终一次性序列化，不跨调用复用。
type VideoRecord struct {
	Status        Status         `json:"status"`
	URLs          URLs           `json:"urls"`
	Content       Content        `json:"content"`
	AuthorInfo    AuthorInfo     `json:"author_info"`
	Statistics    Statistics     `json:"statistics"`
	VideoDetail   VideoDetail    `json:"video_detail"`
	MusicInfo     MusicInfo      `json:"music_info"`
	Transcription *Transcription `json:"transcription,omitempty"`
	Enrichment    *Enrichment    `json:"enrichment,omitempty"`
	Platform      Platform       `json:"platform,omitempty"`
}

// NewFailedRecord 构造失败记录
func NewFailedRecord(errMsg string) *VideoRecord {
	return &VideoRecord{
		Status: Status{Success: false, Error: errMsg},
	}
}

// IsImageNote 是否为图文笔记
func (r *VideoRecord) IsImageNote() bool {
	return r.Content.NoteType == NoteTypeImage
}

// Int64Ptr 辅助函数：取 int64 指针
func Int64Ptr(v int64) *int64 {
	return &v
}

// StringPtr 辅助函数：取 string 指针
func StringPtr(s string) *string {
	return &s
}
