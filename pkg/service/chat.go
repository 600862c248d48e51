// Package service 组装会话历史、历史压缩与问答链的完整请求流程
package service

import (
	"context"

	"github.com/easyops/legalqa-go/pkg/core/errors"
	"github.com/easyops/legalqa-go/pkg/core/message"
	"github.com/easyops/legalqa-go/pkg/history"
	"github.com/easyops/legalqa-go/pkg/obs"
	"github.com/easyops/legalqa-go/pkg/qa"
	"github.com/easyops/legalqa-go/pkg/session"
)

// ChatRequest 聊天请求体
type ChatRequest struct {
	// SessionID 会话标识
	SessionID string `json:"session_id"`
	// Messages 本次请求携带的消息列表
	Messages []message.Message `json:"messages"`
}

// ChatResponse 聊天响应体
type ChatResponse struct {
	// Answer 生成的回答
	Answer string `json:"answer"`
	// UsedKnowledge 是否引用了知识库条文
	UsedKnowledge bool `json:"used_knowledge"`
	// TopScore 首条入选条文的评分
	TopScore float64 `json:"top_score"`
	// NoUseReason 未使用知识库的原因
	NoUseReason string `json:"no_use_reason,omitempty"`
	// SourceDocuments 入选条文列表
	SourceDocuments []qa.SelectedDocument `json:"source_documents"`
}

// ChatService 聊天服务
//
// 持有问答链、会话存储与历史压缩器的显式引用，
// 代替模块级单例。
type ChatService struct {
	chain      *qa.Chain
	sessions   session.Store
	compressor *history.Compressor
	logger     obs.Logger
}

// ChatServiceOption 聊天服务选项
type ChatServiceOption func(*ChatService)

// WithLogger 设置日志器
func WithLogger(logger obs.Logger) ChatServiceOption {
	return func(s *ChatService) {
		s.logger = logger
	}
}

// NewChatService 创建聊天服务
func NewChatService(chain *qa.Chain, sessions session.Store, compressor *history.Compressor, opts ...ChatServiceOption) *ChatService {
	s := &ChatService{
		chain:      chain,
		sessions:   sessions,
		compressor: compressor,
		logger:     obs.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Chat 处理一次聊天请求
//
// 将请求消息写入会话历史，取最后一条用户消息作为问题，
// 压缩历史后执行问答链，并把回答追加回会话。
// 消息中没有用户问题时返回 ErrNoUserQuestion。
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	question, ok := message.LastUserContent(req.Messages)
	if !ok {
		return nil, errors.ErrNoUserQuestion
	}

	// 写入本次请求的消息
	var incoming []message.Message
	for _, msg := range req.Messages {
		if msg.Role != message.RoleUser && msg.Role != message.RoleAssistant {
			continue
		}
		incoming = append(incoming, msg)
	}
	if err := s.sessions.Append(ctx, req.SessionID, incoming...); err != nil {
		return nil, errors.WrapError(err, "append incoming messages")
	}

	// 压缩会话历史
	msgs, err := s.sessions.History(ctx, req.SessionID)
	if err != nil {
		return nil, errors.WrapError(err, "load session history")
	}
	historyText := s.compressor.Compress(msgs)

	// 执行问答链
	result, err := s.chain.Answer(ctx, question, historyText)
	if err != nil {
		return nil, err
	}

	// 回答写回会话历史
	if err := s.sessions.Append(ctx, req.SessionID, message.NewAssistantMessage(result.Answer)); err != nil {
		return nil, errors.WrapError(err, "append answer")
	}

	return &ChatResponse{
		Answer:          result.Answer,
		UsedKnowledge:   result.UsedKnowledge,
		TopScore:        result.TopScore,
		NoUseReason:     result.NoUseReason,
		SourceDocuments: result.SourceDocuments,
	}, nil
}
