package message

// TokenUsage 一次 LLM 调用的 Token 使用统计
//
// 由 OpenAI 兼容响应的 usage 字段填充，随 llm.Response 原样返回。
type TokenUsage struct {
	// PromptTokens 输入 Token 数
	PromptTokens int `json:"prompt_tokens"`
	// CompletionTokens 输出 Token 数
	CompletionTokens int `json:"completion_tokens"`
	// TotalTokens 总 Token 数
	TotalTokens int `json:"total_tokens"`
}
