// Package history 提供 Token 预算内的对话历史压缩
package history

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter 定义 Token 计数接口
type TokenCounter interface {
	// Count 返回给定文本的 Token 数量
	Count(text string) int
}

// TiktokenCounter 使用 tiktoken 实现精确的 Token 计数
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter 创建 TiktokenCounter
//
// 默认使用 cl100k_base 编码（GPT-4 系列和通义千问 API
// 的计费口径与其接近）。
func NewTiktokenCounter(encodingName string) (*TiktokenCounter, error) {
	if encodingName == "" {
		encodingName = "cl100k_base"
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, err
	}

	return &TiktokenCounter{encoding: encoding}, nil
}

// Count 返回给定文本的 Token 数量
func (c *TiktokenCounter) Count(text string) int {
	if c.encoding == nil {
		return estimateTokens(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// EstimatedCounter 使用字符估算实现 Token 计数
//
// tiktoken 编码资源不可用时的降级方案。
type EstimatedCounter struct {
	// CharsPerToken 每个 Token 的平均字符数，默认 4
	CharsPerToken float64
}

// NewEstimatedCounter 创建 EstimatedCounter
func NewEstimatedCounter() *EstimatedCounter {
	return &EstimatedCounter{CharsPerToken: 4.0}
}

// Count 返回估算的 Token 数量
func (c *EstimatedCounter) Count(text string) int {
	if c.CharsPerToken <= 0 {
		c.CharsPerToken = 4.0
	}
	return int(float64(len(text)) / c.CharsPerToken)
}

// estimateTokens 提供简单的 Token 估算降级方案
func estimateTokens(text string) int {
	charCount := len(text)
	wordCount := len(strings.Fields(text))

	if wordCount == 0 {
		return charCount / 4
	}

	// 字符估算与词估算取平均，对中英混合内容效果更好
	charBasedTokens := charCount / 4
	wordBasedTokens := int(float64(wordCount) * 1.3)

	return (charBasedTokens + wordBasedTokens) / 2
}

// DefaultTokenCounter 返回一个 TokenCounter，
// 优先使用 TiktokenCounter，不可用时降级到 EstimatedCounter。
func DefaultTokenCounter() TokenCounter {
	counter, err := NewTiktokenCounter("")
	if err != nil {
		return NewEstimatedCounter()
	}
	return counter
}

// 编译时接口检查
var _ TokenCounter = (*TiktokenCounter)(nil)
var _ TokenCounter = (*EstimatedCounter)(nil)
