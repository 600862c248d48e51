package rerank_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/easyops/legalqa-go/pkg/core/llm"
	"github.com/easyops/legalqa-go/pkg/rerank"
)

// mockProvider implements llm.Provider for testing
type mockProvider struct {
	generateFn func(ctx context.Context, req llm.Request) (llm.Response, error)
}

func (m *mockProvider) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return llm.Response{}, nil
}

func (m *mockProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (m *mockProvider) Name() string { return "mock" }
func (m *mockProvider) Model() string { return "mock-model" }
func (m *mockProvider) Close() error { return nil }

func replyWith(content string) *mockProvider {
	return &mockProvider{
		generateFn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
			return llm.Response{Content: content}, nil
		},
	}
}

func TestScorer_ParsesHalfWidthColon(t *testing.T) {
	scorer := rerank.NewScorer(replyWith("评分: 85\n理由: 条文直接规定了解除程序"))

	results := scorer.Score(context.Background(), "如何解除劳动合同", []string{"第三十七条 ..."})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Score != 85 {
		t.Fatalf("expected score 85, got %v", results[0].Score)
	}
	if results[0].Rationale != "条文直接规定了解除程序" {
		t.Fatalf("unexpected rationale: %q", results[0].Rationale)
	}
}

func TestScorer_ParsesFullWidthColon(t *testing.T) {
	scorer := rerank.NewScorer(replyWith("评分：72.5\n理由：部分相关"))

	results := scorer.Score(context.Background(), "q", []string{"p"})
	if results[0].Score != 72.5 {
		t.Fatalf("expected score 72.5, got %v", results[0].Score)
	}
	if results[0].Rationale != "部分相关" {
		t.Fatalf("unexpected rationale: %q", results[0].Rationale)
	}
}

func TestScorer_MultilineRationale(t *testing.T) {
	scorer := rerank.NewScorer(replyWith("评分: 90\n理由: 第一行说明\n第二行补充"))

	results := scorer.Score(context.Background(), "q", []string{"p"})
	if results[0].Score != 90 {
		t.Fatalf("expected score 90, got %v", results[0].Score)
	}
	if !strings.Contains(results[0].Rationale, "第二行补充") {
		t.Fatalf("expected multiline rationale captured, got %q", results[0].Rationale)
	}
}

func TestScorer_FormatNotRecognized(t *testing.T) {
	scorer := rerank.NewScorer(replyWith("这条法律和问题非常相关，建议采用。"))

	results := scorer.Score(context.Background(), "q", []string{"p"})
	if results[0].Score != 0 {
		t.Fatalf("expected zero score for unparseable reply, got %v", results[0].Score)
	}
	if results[0].Rationale != rerank.ReasonFormatNotRecognized {
		t.Fatalf("expected format reason, got %q", results[0].Rationale)
	}
}

func TestScorer_InvocationErrorDegrades(t *testing.T) {
	provider := &mockProvider{
		generateFn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
			return llm.Response{}, errors.New("provider down")
		},
	}
	scorer := rerank.NewScorer(provider)

	results := scorer.Score(context.Background(), "q", []string{"p1", "p2"})
	// Failures degrade to zero-score entries, the batch never aborts
	if len(results) != 2 {
		t.Fatalf("expected 2 results despite failures, got %d", len(results))
	}
	for _, r := range results {
		if r.Score != 0 || r.Rationale != rerank.ReasonInvocationError {
			t.Fatalf("expected zero score with invocation reason, got %+v", r)
		}
	}
}

func TestScorer_PreservesInputOrderAndLength(t *testing.T) {
	var calls int
	replies := []string{
		"评分: 10\n理由: 甲",
		"无法解析的回复",
		"评分: 95\n理由: 丙",
	}
	provider := &mockProvider{
		generateFn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
			reply := replies[calls]
			calls++
			return llm.Response{Content: reply}, nil
		},
	}
	scorer := rerank.NewScorer(provider)

	passages := []string{"条文一", "条文二", "条文三"}
	results := scorer.Score(context.Background(), "q", passages)

	if len(results) != len(passages) {
		t.Fatalf("expected output length %d, got %d", len(passages), len(results))
	}
	for i, r := range results {
		if r.Content != passages[i] {
			t.Fatalf("result %d bound to wrong passage: %q", i, r.Content)
		}
	}
	if results[0].Score != 10 || results[1].Score != 0 || results[2].Score != 95 {
		t.Fatalf("unexpected scores: %v %v %v", results[0].Score, results[1].Score, results[2].Score)
	}
}

func TestScorer_PromptCarriesQuestionAndPassage(t *testing.T) {
	var gotPrompt string
	provider := &mockProvider{
		generateFn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
			gotPrompt = req.Messages[len(req.Messages)-1].Content
			return llm.Response{Content: "评分: 50\n理由: x"}, nil
		},
	}
	scorer := rerank.NewScorer(provider)

	scorer.Score(context.Background(), "试用期多长", []string{"第十九条 试用期..."})
	if !strings.Contains(gotPrompt, "试用期多长") || !strings.Contains(gotPrompt, "第十九条") {
		t.Fatalf("prompt missing question or passage: %q", gotPrompt)
	}
}
