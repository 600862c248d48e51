package prompt_test

import (
	"strings"
	"testing"

	"github.com/easyops/legalqa-go/pkg/prompt"
)

func TestTemplate_Render(t *testing.T) {
	tpl := &prompt.Template{
		Name:      "demo",
		Text:      "问题: {question}\n条文: {context}",
		Variables: []string{"question", "context"},
	}

	got, err := tpl.Render(map[string]string{
		"question": "试用期多久",
		"context":  "第十九条",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got != "问题: 试用期多久\n条文: 第十九条" {
		t.Fatalf("unexpected render output: %q", got)
	}
}

func TestTemplate_MissingVariable(t *testing.T) {
	tpl := &prompt.Template{
		Name:      "demo",
		Text:      "{question}",
		Variables: []string{"question"},
	}

	_, err := tpl.Render(map[string]string{})
	if err == nil {
		t.Fatal("expected error for missing variable")
	}
	if !strings.Contains(err.Error(), "question") {
		t.Fatalf("expected error to name the missing variable, got %v", err)
	}
}

func TestBuiltinTemplates(t *testing.T) {
	legal, err := prompt.Legal.Render(map[string]string{
		"context":      "第三十七条 ...",
		"question":     "如何解除合同",
		"chat_history": "",
	})
	if err != nil {
		t.Fatalf("legal template render failed: %v", err)
	}
	if !strings.Contains(legal, "第三十七条") || !strings.Contains(legal, "如何解除合同") {
		t.Fatalf("legal template missing substitutions: %q", legal)
	}

	fallback, err := prompt.Fallback.Render(map[string]string{
		"question":     "如何解除合同",
		"chat_history": "User: 之前的问题\n",
	})
	if err != nil {
		t.Fatalf("fallback template render failed: %v", err)
	}
	if strings.Contains(fallback, "{question}") || strings.Contains(fallback, "{chat_history}") {
		t.Fatalf("fallback template has unreplaced placeholders: %q", fallback)
	}

	rerank, err := prompt.Rerank.Render(map[string]string{
		"question": "q",
		"context":  "c",
	})
	if err != nil {
		t.Fatalf("rerank template render failed: %v", err)
	}
	// The parser depends on the model echoing this exact format
	if !strings.Contains(rerank, "评分: <数字>") || !strings.Contains(rerank, "理由: <一句话说明>") {
		t.Fatalf("rerank template missing output format instructions: %q", rerank)
	}
}
