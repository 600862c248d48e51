package history

import (
	"github.com/easyops/legalqa-go/pkg/core/message"
)

// Compressor 对话历史压缩器
//
// 将会话消息列表压缩为 Token 预算内的单段历史文本，
// 优先保留最近的消息。
type Compressor struct {
	counter   TokenCounter
	maxMsgs   int
	maxTokens int
}

// CompressorOption 压缩器选项
type CompressorOption func(*Compressor)

// WithMaxMessages 设置参与压缩的最近消息条数
func WithMaxMessages(n int) CompressorOption {
	return func(c *Compressor) {
		c.maxMsgs = n
	}
}

// WithMaxTokens 设置历史文本的 Token 预算
func WithMaxTokens(n int) CompressorOption {
	return func(c *Compressor) {
		c.maxTokens = n
	}
}

// WithTokenCounter 设置 Token 计数器
func WithTokenCounter(counter TokenCounter) CompressorOption {
	return func(c *Compressor) {
		c.counter = counter
	}
}

// NewCompressor 创建对话历史压缩器
func NewCompressor(opts ...CompressorOption) *Compressor {
	c := &Compressor{
		maxMsgs:   10,
		maxTokens: 1500,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.counter == nil {
		c.counter = DefaultTokenCounter()
	}

	return c
}

// Compress 将消息列表压缩为历史文本
//
// 只考虑最近 maxMsgs 条消息，从最新向最旧逐条格式化为
// "{Role}: {content}\n"；每条通过预算检查的行前插到累积文本，
// 首条超出预算的行使遍历终止（不跳过继续）。由于逐条前插，
// 结果仍保持时间顺序。
func (c *Compressor) Compress(msgs []message.Message) string {
	if len(msgs) > c.maxMsgs {
		msgs = msgs[len(msgs)-c.maxMsgs:]
	}

	var historyText string
	totalTokens := 0

	for i := len(msgs) - 1; i >= 0; i-- {
		line := msgs[i].Role.DisplayName() + ": " + msgs[i].Content + "\n"
		lineTokens := c.counter.Count(line)

		if totalTokens+lineTokens > c.maxTokens {
			break
		}

		historyText = line + historyText
		totalTokens += lineTokens
	}

	return historyText
}
