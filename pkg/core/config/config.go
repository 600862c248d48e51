// Package config 提供配置加载和管理功能
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config 全局配置结构
type Config struct {
	// LLM LLM 配置
	LLM LLMConfig `koanf:"llm"`
	// Retrieval 检索配置
	Retrieval RetrievalConfig `koanf:"retrieval"`
	// History 对话历史配置
	History HistoryConfig `koanf:"history"`
	// Session 会话存储配置
	Session SessionConfig `koanf:"session"`
	// Server HTTP 服务配置
	Server ServerConfig `koanf:"server"`
	// Observability 可观测性配置
	Observability ObservabilityConfig `koanf:"observability"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// APIKey API 密钥
	APIKey string `koanf:"api_key"`
	// BaseURL 自定义 API 端点（默认 DashScope 兼容模式）
	BaseURL string `koanf:"base_url"`
	// Model 对话模型名称
	Model string `koanf:"model"`
	// EmbeddingModel 嵌入模型名称
	EmbeddingModel string `koanf:"embedding_model"`
	// Temperature 采样温度
	Temperature float64 `koanf:"temperature"`
	// Timeout 请求超时
	Timeout time.Duration `koanf:"timeout"`
	// MaxRetries 最大重试次数
	MaxRetries int `koanf:"max_retries"`
	// RetryDelay 重试间隔基数
	RetryDelay time.Duration `koanf:"retry_delay"`
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	// VectorTopK 向量检索返回数量
	VectorTopK int `koanf:"vector_top_k"`
	// KeywordTopK 关键词检索返回数量
	KeywordTopK int `koanf:"keyword_top_k"`
	// ScoreThreshold 重排序保留阈值 (0-100)
	ScoreThreshold float64 `koanf:"score_threshold"`
	// MaxSelected 最终上下文最多保留的文档数
	MaxSelected int `koanf:"max_selected"`
	// MaxContextChars 上下文字符预算
	MaxContextChars int `koanf:"max_context_chars"`
	// IndexPath SQLite 知识库路径
	IndexPath string `koanf:"index_path"`
}

// HistoryConfig 对话历史配置
type HistoryConfig struct {
	// MaxMessages 参与压缩的最近消息条数
	MaxMessages int `koanf:"max_messages"`
	// MaxTokens 历史文本 Token 预算
	MaxTokens int `koanf:"max_tokens"`
}

// SessionConfig 会话存储配置
type SessionConfig struct {
	// Backend 存储后端: "redis" 或 "memory"
	Backend string `koanf:"backend"`
	// RedisAddr Redis 地址
	RedisAddr string `koanf:"redis_addr"`
	// RedisPassword Redis 密码
	RedisPassword string `koanf:"redis_password"`
	// TTL 会话过期时间
	TTL time.Duration `koanf:"ttl"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	// Addr 监听地址
	Addr string `koanf:"addr"`
	// AllowedOrigins 允许跨域的源
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	// Enabled 是否启用
	Enabled bool `koanf:"enabled"`
	// ServiceName 服务名称
	ServiceName string `koanf:"service_name"`
	// TracerEndpoint 追踪端点（为空时输出到 stdout）
	TracerEndpoint string `koanf:"tracer_endpoint"`
	// SampleRate 采样率 [0, 1]
	SampleRate float64 `koanf:"sample_rate"`
}

// Loader 配置加载器
type Loader struct {
	k *koanf.Koanf
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		k: koanf.New("."),
	}
}

// LoadEnv 从环境变量加载配置
func (l *Loader) LoadEnv(prefix string) error {
	return l.k.Load(env.Provider(prefix, ".", func(s string) string {
		// 转换环境变量名: LEGALQA_LLM_API_KEY -> llm.api_key
		// 配置树固定两层，只有第一个下划线是层级分隔符
		s = strings.TrimPrefix(s, prefix)
		s = strings.ToLower(s)
		s = strings.Replace(s, "_", ".", 1)
		return s
	}), nil)
}

// Unmarshal 解析配置到结构体
func (l *Loader) Unmarshal(cfg *Config) error {
	return l.k.Unmarshal("", cfg)
}

// GetString 获取字符串配置值
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// Load 加载完整配置（环境变量优先）
func Load() (*Config, error) {
	loader := NewLoader()

	if err := loader.LoadEnv("LEGALQA_"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults 应用默认配置值
func applyDefaults(cfg *Config) {
	// LLM 默认值
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "qwen-plus"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "text-embedding-v3"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 3
	}
	if cfg.LLM.RetryDelay == 0 {
		cfg.LLM.RetryDelay = time.Second
	}

	// 检索默认值
	if cfg.Retrieval.VectorTopK == 0 {
		cfg.Retrieval.VectorTopK = 15
	}
	if cfg.Retrieval.KeywordTopK == 0 {
		cfg.Retrieval.KeywordTopK = 5
	}
	if cfg.Retrieval.ScoreThreshold == 0 {
		cfg.Retrieval.ScoreThreshold = 70
	}
	if cfg.Retrieval.MaxSelected == 0 {
		cfg.Retrieval.MaxSelected = 3
	}
	if cfg.Retrieval.MaxContextChars == 0 {
		cfg.Retrieval.MaxContextChars = 2000
	}
	if cfg.Retrieval.IndexPath == "" {
		cfg.Retrieval.IndexPath = "legal_docs.db"
	}

	// 历史默认值
	if cfg.History.MaxMessages == 0 {
		cfg.History.MaxMessages = 10
	}
	if cfg.History.MaxTokens == 0 {
		cfg.History.MaxTokens = 1500
	}

	// 会话默认值
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.RedisAddr == "" {
		cfg.Session.RedisAddr = "localhost:6379"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = time.Hour
	}

	// 服务默认值
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// 可观测性默认值
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "legalqa"
	}
	if cfg.Observability.SampleRate == 0 {
		cfg.Observability.SampleRate = 1.0
	}
}
