package llm

import (
	"github.com/easyops/legalqa-go/pkg/core/config"
)

// FromConfig 根据配置创建 Provider
func FromConfig(cfg config.LLMConfig) (Provider, error) {
	return NewOpenAI(
		WithAPIKey(cfg.APIKey),
		WithBaseURL(cfg.BaseURL),
		WithModel(cfg.Model),
		WithEmbeddingModel(cfg.EmbeddingModel),
		WithTemperature(cfg.Temperature),
		WithTimeout(cfg.Timeout),
		WithMaxRetries(cfg.MaxRetries),
		WithRetryDelay(cfg.RetryDelay),
	)
}
