// Package qa 实现法律问答链：混合检索、LLM 重排序、上下文拼接与回答生成
package qa

import (
	"context"
	"sort"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/easyops/legalqa-go/pkg/core/llm"
	"github.com/easyops/legalqa-go/pkg/core/message"
	"github.com/easyops/legalqa-go/pkg/knowledge"
	"github.com/easyops/legalqa-go/pkg/obs"
	"github.com/easyops/legalqa-go/pkg/prompt"
	"github.com/easyops/legalqa-go/pkg/rerank"
)

// 未使用知识库的原因
const (
	// ReasonNoDocuments 混合检索未返回任何条文
	ReasonNoDocuments = "未检索到任何文档"
	// ReasonNoRelevant 没有条文通过相关性阈值
	ReasonNoRelevant = "无相关知识文档或该问题不需要引用文档"
)

// SelectedDocument 最终进入上下文的条文
type SelectedDocument struct {
	// Content 条文原文
	Content string `json:"content"`
	// Score 重排序评分
	Score float64 `json:"score"`
	// Reason 评分理由
	Reason string `json:"reason"`
	// SourceName 法律文件简短名
	SourceName string `json:"source_name,omitempty"`
	// SourceText 条文编号标题
	SourceText string `json:"source_text,omitempty"`
}

// Result 问答链结果
//
// 未使用知识库（fallback）是正常的成功结果，不是错误。
type Result struct {
	// Answer 生成的回答
	Answer string `json:"answer"`
	// UsedKnowledge 是否引用了知识库条文
	UsedKnowledge bool `json:"used_knowledge"`
	// TopScore 首条入选条文的评分；fallback 时为 0
	TopScore float64 `json:"top_score"`
	// NoUseReason fallback 的触发原因；使用知识库时为空
	NoUseReason string `json:"no_use_reason,omitempty"`
	// SourceDocuments 入选条文列表
	SourceDocuments []SelectedDocument `json:"source_documents"`
}

// Chain 法律问答链
//
// 驱动检索、评分、过滤、上下文预算与最终生成。
// 检索索引和生成调用的错误向上传播；只有单条候选的
// 评分失败在 rerank 层被本地吸收。
type Chain struct {
	retriever *knowledge.HybridRetriever
	scorer    *rerank.Scorer
	provider  llm.Provider

	contextTemplate  *prompt.Template
	fallbackTemplate *prompt.Template

	threshold       float64
	maxSelected     int
	maxContextChars int

	logger obs.Logger
	tracer obs.Tracer
}

// ChainOption 问答链选项
type ChainOption func(*Chain)

// WithThreshold 设置重排序保留阈值
func WithThreshold(threshold float64) ChainOption {
	return func(c *Chain) {
		c.threshold = threshold
	}
}

// WithMaxSelected 设置最终保留的条文数上限
func WithMaxSelected(n int) ChainOption {
	return func(c *Chain) {
		c.maxSelected = n
	}
}

// WithMaxContextChars 设置上下文字符预算
func WithMaxContextChars(n int) ChainOption {
	return func(c *Chain) {
		c.maxContextChars = n
	}
}

// WithTemplates 设置有上下文/无上下文两套模板
func WithTemplates(contextTpl, fallbackTpl *prompt.Template) ChainOption {
	return func(c *Chain) {
		c.contextTemplate = contextTpl
		c.fallbackTemplate = fallbackTpl
	}
}

// WithLogger 设置日志器
func WithLogger(logger obs.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = logger
	}
}

// WithTracer 设置追踪器
func WithTracer(tracer obs.Tracer) ChainOption {
	return func(c *Chain) {
		c.tracer = tracer
	}
}

// NewChain 创建问答链
func NewChain(retriever *knowledge.HybridRetriever, scorer *rerank.Scorer, provider llm.Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		retriever:        retriever,
		scorer:           scorer,
		provider:         provider,
		contextTemplate:  prompt.Legal,
		fallbackTemplate: prompt.Fallback,
		threshold:        70,
		maxSelected:      3,
		maxContextChars:  2000,
		logger:           obs.NewNoopLogger(),
		tracer:           obs.NewNoopTracer(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Answer 执行问答流程
//
// query 为用户问题，chatHistory 为压缩后的历史文本（可为空）。
func (c *Chain) Answer(ctx context.Context, query, chatHistory string) (*Result, error) {
	logger := c.logger.WithContext(ctx)
	logger.Info("received query", "query", query)

	// 混合检索
	ctx, span := c.tracer.Start(ctx, "qa.retrieve")
	merged, err := c.retriever.Retrieve(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}
	span.SetAttributes(attribute.Int("qa.candidates", len(merged)))
	span.End()

	if len(merged) == 0 {
		logger.Info("no documents retrieved from hybrid search")
		return c.fallback(ctx, query, chatHistory, ReasonNoDocuments)
	}

	// LLM 重排序
	texts := make([]string, len(merged))
	for i, doc := range merged {
		texts[i] = doc.Content
	}

	ctx, span = c.tracer.Start(ctx, "qa.rerank")
	scored := c.scorer.Score(ctx, query, texts)
	span.End()

	// 按阈值过滤，降序截断
	filtered := make([]rerank.ScoredPassage, 0, len(scored))
	for _, item := range scored {
		if item.Score >= c.threshold {
			filtered = append(filtered, item)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	if len(filtered) > c.maxSelected {
		filtered = filtered[:c.maxSelected]
	}

	if len(filtered) == 0 {
		logger.Info("no documents passed the relevance threshold", "threshold", c.threshold)
		return c.fallback(ctx, query, chatHistory, ReasonNoRelevant)
	}

	// 拼接上下文；去重时条文文本与元数据的映射保持稳定，
	// 这里按文本精确回查出处
	contentMeta := make(map[string]knowledge.Metadata, len(merged))
	for _, doc := range merged {
		contentMeta[doc.Content] = doc.Metadata
	}

	var contextText string
	contextChars := 0
	var selected []SelectedDocument
	for _, item := range filtered {
		// 贪心预算：放不下的条文使累积终止，已入选的保留。
		// 预算按字符（rune）计数，中文条文每字只占一个配额
		itemChars := utf8.RuneCountInString(item.Content)
		if contextChars+itemChars > c.maxContextChars {
			break
		}

		meta := contentMeta[item.Content]
		contextText += item.Content + "\n\n"
		contextChars += itemChars + 2
		selected = append(selected, SelectedDocument{
			Content:    item.Content,
			Score:      item.Score,
			Reason:     item.Rationale,
			SourceName: meta.SourceName,
			SourceText: meta.SourceText,
		})
	}

	if len(selected) == 0 {
		logger.Info("context budget excluded all candidates", "budget", c.maxContextChars)
		return c.fallback(ctx, query, chatHistory, ReasonNoRelevant)
	}

	topScore := selected[0].Score
	logger.Info("using reranked context", "top_score", topScore, "selected", len(selected))

	// 生成回答
	rendered, err := c.contextTemplate.Render(map[string]string{
		"context":      contextText,
		"question":     query,
		"chat_history": chatHistory,
	})
	if err != nil {
		return nil, err
	}

	ctx, span = c.tracer.Start(ctx, "qa.generate",
		attribute.Bool("qa.used_knowledge", true))
	resp, err := c.provider.Generate(ctx, llm.Request{
		Messages: []message.Message{message.NewUserMessage(rendered)},
	})
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}
	span.End()

	return &Result{
		Answer:          resp.Content,
		UsedKnowledge:   true,
		TopScore:        topScore,
		SourceDocuments: selected,
	}, nil
}

// fallback 无知识回答路径
func (c *Chain) fallback(ctx context.Context, query, chatHistory, reason string) (*Result, error) {
	rendered, err := c.fallbackTemplate.Render(map[string]string{
		"question":     query,
		"chat_history": chatHistory,
	})
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "qa.generate",
		attribute.Bool("qa.used_knowledge", false))
	resp, err := c.provider.Generate(ctx, llm.Request{
		Messages: []message.Message{message.NewUserMessage(rendered)},
	})
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}
	span.End()

	return &Result{
		Answer:          resp.Content,
		UsedKnowledge:   false,
		TopScore:        0.0,
		NoUseReason:     reason,
		SourceDocuments: []SelectedDocument{},
	}, nil
}
