// Package errors 定义服务的通用错误类型
package errors

import (
	"errors"
	"fmt"
)

// 通用错误
var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrContextCanceled 上下文被取消
	ErrContextCanceled = errors.New("context canceled")
)

// 输入错误
var (
	// ErrNoUserQuestion 请求消息中不包含用户问题
	ErrNoUserQuestion = errors.New("no user question provided")
)

// LLM 相关错误
var (
	// ErrRateLimited 请求被限速
	ErrRateLimited = errors.New("rate limited")
	// ErrTimeout 请求超时
	ErrTimeout = errors.New("request timeout")
	// ErrInvalidAPIKey API 密钥无效
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrProviderUnavailable 提供商不可用
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrInvalidResponse LLM 响应无效
	ErrInvalidResponse = errors.New("invalid LLM response")
)

// 知识库相关错误
var (
	// ErrEmbeddingFailed 嵌入失败
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrStoreFailed 知识库操作失败
	ErrStoreFailed = errors.New("knowledge store operation failed")
)

// 会话相关错误
var (
	// ErrSessionStoreFailed 会话存储操作失败
	ErrSessionStoreFailed = errors.New("session store operation failed")
)

// WrapError 包装错误并添加上下文信息
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrProviderUnavailable)
}

// IsClientError 判断错误是否由调用方输入引起（HTTP 层映射为 4xx）
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNoUserQuestion)
}
