package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	HTTP       HTTPConfig                `yaml:"http"`
	Browser    BrowserConfig             `yaml:"browser"`
	Redis      RedisConfig               `yaml:"redis"`
	Cache      CacheConfig               `yaml:"cache"`
	Platforms  map[string]PlatformConfig `yaml:"platforms"`
	Transcribe TranscribeConfig          `yaml:"transcribe"`
	DeepSeek   DeepSeekConfig            `yaml:"deepseek"`
	OSS        OSSConfig                 `yaml:"oss"`
	Media      MediaConfig               `yaml:"media"`
	Output     OutputConfig              `yaml:"output"`
	Verbose    bool                      `yaml:"verbose"` // 显式开关，不读环境变量
}

// HTTPConfig HTTP 客户端配置
type HTTPConfig struct {
	Timeout         int `yaml:"timeout"`          // 请求超时(秒)
	DownloadTimeout int `yaml:"download_timeout"` // 媒体下载超时(秒)
}

// BrowserConfig 无头浏览器配置
type BrowserConfig struct {
	ExecPath    string `yaml:"exec_path"`    // 浏览器二进制路径，空则自动查找
	NavTimeout  int    `yaml:"nav_timeout"`  // 导航超时(秒)
	SettleDelay int    `yaml:"settle_delay"` // 导航后等待页面自发请求的时间(秒)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// CacheConfig 解析结果缓存配置
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTL     int  `yaml:"ttl"` // 缓存TTL(秒)
}

// PlatformConfig 平台特定配置
type PlatformConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIBaseURL string `yaml:"api_base_url"` // 覆盖平台 API 基址（测试用）
}

// TranscribeConfig 转录服务配置
type TranscribeConfig struct {
	Doubao    DoubaoConfig    `yaml:"doubao"`
	DashScope DashScopeConfig `yaml:"dashscope"`
}

// DoubaoConfig 豆包语音识别配置
type DoubaoConfig struct {
	AppID          string `yaml:"app_id"`
	AccessToken    string `yaml:"access_token"`
	ResourceID     string `yaml:"resource_id"`
	SubmitEndpoint string `yaml:"submit_endpoint"`
	QueryEndpoint  string `yaml:"query_endpoint"`
	PollInterval   int    `yaml:"poll_interval"` // 轮询间隔(秒)
	MaxPolls       int    `yaml:"max_polls"`     // 最大轮询次数
}

// DashScopeConfig DashScope(paraformer)配置
type DashScopeConfig struct {
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint"`
	PollInterval int    `yaml:"poll_interval"`
	MaxPolls     int    `yaml:"max_polls"`
}

// DeepSeekConfig DeepSeek 文本富化配置
type DeepSeekConfig struct {
	APIKey  string `yaml:"api_key"`
	APIBase string `yaml:"api_base"`
	Model   string `yaml:"model"`
	Timeout int    `yaml:"timeout"` // 请求超时(秒)
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Endpoint        string `yaml:"endpoint"`
	BucketName      string `yaml:"bucket_name"`
	ExpireHours     int    `yaml:"expire_hours"` // 签名URL有效期(小时)
}

// MediaConfig 外部媒体工具配置
type MediaConfig struct {
	FFprobePath string `yaml:"ffprobe_path"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	Timeout     int    `yaml:"timeout"` // 工具调用超时(秒)
}

// OutputConfig 输出配置
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	TemplatePath string `yaml:"template_path"`
}

// LoadConfig 加载配置文件。path 为空时返回默认配置，
// 便于仅解析链接（--no-transcribe）的场景无配置运行
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// 从环境变量覆盖敏感配置
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		cfg.DeepSeek.APIKey = v
	}
	if v := os.Getenv("DASHSCOPE_API_KEY"); v != "" {
		cfg.Transcribe.DashScope.APIKey = v
	}
	if v := os.Getenv("OSS_ACCESS_KEY_ID"); v != "" {
		cfg.OSS.AccessKeyID = v
	}
	if v := os.Getenv("OSS_ACCESS_KEY_SECRET"); v != "" {
		cfg.OSS.AccessKeySecret = v
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults 零值回填默认配置
func applyDefaults(cfg *Config) {
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 15
	}
	if cfg.HTTP.DownloadTimeout == 0 {
		cfg.HTTP.DownloadTimeout = 120
	}
	if cfg.Browser.NavTimeout == 0 {
		cfg.Browser.NavTimeout = 60
	}
	if cfg.Browser.SettleDelay == 0 {
		cfg.Browser.SettleDelay = 8
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 3600
	}
	if cfg.Platforms == nil {
		cfg.Platforms = map[string]PlatformConfig{}
	}
	for _, name := range []string{"douyin", "bilibili", "xiaohongshu", "kuaishou", "local"} {
		if _, ok := cfg.Platforms[name]; !ok {
			cfg.Platforms[name] = PlatformConfig{Enabled: true}
		}
	}
	if cfg.Transcribe.Doubao.SubmitEndpoint == "" {
		cfg.Transcribe.Doubao.SubmitEndpoint = "https://openspeech.bytedance.com/api/v3/auc/bigmodel/submit"
	}
	if cfg.Transcribe.Doubao.QueryEndpoint == "" {
		cfg.Transcribe.Doubao.QueryEndpoint = "https://openspeech.bytedance.com/api/v3/auc/bigmodel/query"
	}
	if cfg.Transcribe.Doubao.PollInterval == 0 {
		cfg.Transcribe.Doubao.PollInterval = 2
	}
	if cfg.Transcribe.Doubao.MaxPolls == 0 {
		cfg.Transcribe.Doubao.MaxPolls = 60
	}
	if cfg.Transcribe.DashScope.Endpoint == "" {
		cfg.Transcribe.DashScope.Endpoint = "https://dashscope.aliyuncs.com"
	}
	if cfg.Transcribe.DashScope.PollInterval == 0 {
		cfg.Transcribe.DashScope.PollInterval = 3
	}
	if cfg.Transcribe.DashScope.MaxPolls == 0 {
		cfg.Transcribe.DashScope.MaxPolls = 40
	}
	if cfg.DeepSeek.APIBase == "" {
		cfg.DeepSeek.APIBase = "https://api.deepseek.com"
	}
	if cfg.DeepSeek.Model == "" {
		cfg.DeepSeek.Model = "deepseek-reasoner"
	}
	if cfg.DeepSeek.Timeout == 0 {
		cfg.DeepSeek.Timeout = 120
	}
	if cfg.OSS.ExpireHours == 0 {
		cfg.OSS.ExpireHours = 2
	}
	if cfg.Media.FFprobePath == "" {
		cfg.Media.FFprobePath = "ffprobe"
	}
	if cfg.Media.FFmpegPath == "" {
		cfg.Media.FFmpegPath = "ffmpeg"
	}
	if cfg.Media.Timeout == 0 {
		cfg.Media.Timeout = 30
	}
}

// GetHTTPTimeout 获取HTTP超时时间
func (c *HTTPConfig) GetHTTPTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetDownloadTimeout 获取下载超时时间
func (c *HTTPConfig) GetDownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeout) * time.Second
}

// GetNavTimeout 获取浏览器导航超时时间
func (c *BrowserConfig) GetNavTimeout() time.Duration {
	return time.Duration(c.NavTimeout) * time.Second
}

// GetSettleDelay 获取页面静置等待时间
func (c *BrowserConfig) GetSettleDelay() time.Duration {
	return time.Duration(c.SettleDelay) * time.Second
}

// GetCacheTTL 获取缓存TTL时间
func (c *CacheConfig) GetCacheTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// GetTimeout 获取外部工具调用超时时间
func (c *MediaConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetTimeout 获取DeepSeek请求超时时间
func (c *DeepSeekConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
