// Package rerank 使用 LLM 对检索候选进行相关性重排序
package rerank

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/easyops/legalqa-go/pkg/core/llm"
	"github.com/easyops/legalqa-go/pkg/core/message"
	"github.com/easyops/legalqa-go/pkg/obs"
	"github.com/easyops/legalqa-go/pkg/prompt"
)

// 解析失败时的默认理由
const (
	// ReasonFormatNotRecognized 模型输出未匹配评分格式
	ReasonFormatNotRecognized = "未能识别评分格式"
	// ReasonInvocationError 模型调用失败
	ReasonInvocationError = "模型调用异常"
)

// scoreRe 提取 "评分: <数字>" 与 "理由: <文本>"
//
// 容忍全角/半角冒号、空白，理由可跨多行。
var scoreRe = regexp.MustCompile(`(?is)评分[:：]?\s*(\d+(?:\.\d+)?)\s*[\r\n]+\s*理由[:：]?\s*(.+)`)

// ScoredPassage 带评分的候选条文
type ScoredPassage struct {
	// Score 相关性评分 (0-100)
	Score float64 `json:"score"`
	// Content 条文原文
	Content string `json:"content"`
	// Rationale 评分理由
	Rationale string `json:"rationale"`
}

// Scorer 相关性评分器
//
// 对每条候选发起一次 LLM 调用判定其与问题的相关程度。
// 单条候选的调用失败或格式错误只降级为零分，不中断整批评分，
// 因此输出长度恒等于输入长度且保持原序。
type Scorer struct {
	provider llm.Provider
	template *prompt.Template
	logger   obs.Logger
}

// ScorerOption 评分器选项
type ScorerOption func(*Scorer)

// WithTemplate 设置评分模板
func WithTemplate(t *prompt.Template) ScorerOption {
	return func(s *Scorer) {
		s.template = t
	}
}

// WithLogger 设置日志器
func WithLogger(logger obs.Logger) ScorerOption {
	return func(s *Scorer) {
		s.logger = logger
	}
}

// NewScorer 创建相关性评分器
func NewScorer(provider llm.Provider, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		provider: provider,
		template: prompt.Rerank,
		logger:   obs.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score 对候选条文逐条评分
//
// 按输入顺序逐条调用模型；评分调用串行执行，保证每条候选
// 得到独立判定。返回值与输入一一对应。
func (s *Scorer) Score(ctx context.Context, question string, passages []string) []ScoredPassage {
	results := make([]ScoredPassage, 0, len(passages))

	for i, content := range passages {
		rendered, err := s.template.Render(map[string]string{
			"question": question,
			"context":  content,
		})
		if err != nil {
			results = append(results, ScoredPassage{Score: 0, Content: content, Rationale: ReasonInvocationError})
			continue
		}

		resp, err := s.provider.Generate(ctx, llm.Request{
			Messages: []message.Message{message.NewUserMessage(rendered)},
		})
		if err != nil {
			s.logger.Warn("rerank call failed", "index", i, "error", err)
			results = append(results, ScoredPassage{Score: 0, Content: content, Rationale: ReasonInvocationError})
			continue
		}

		score, rationale, ok := parseScore(resp.Content)
		if !ok {
			s.logger.Warn("rerank reply not parseable", "index", i)
			results = append(results, ScoredPassage{Score: 0, Content: content, Rationale: ReasonFormatNotRecognized})
			continue
		}

		results = append(results, ScoredPassage{Score: score, Content: content, Rationale: rationale})
	}

	return results
}

// parseScore 从模型自由文本回复中提取评分与理由
//
// 第三个返回值为 false 表示未匹配到格式；部分匹配不向上传播。
func parseScore(reply string) (float64, string, bool) {
	match := scoreRe.FindStringSubmatch(reply)
	if match == nil {
		return 0, "", false
	}

	score, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, "", false
	}

	return score, strings.TrimSpace(match[2]), true
}
