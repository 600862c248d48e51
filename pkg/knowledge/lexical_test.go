package knowledge_test

import (
	"testing"

	"github.com/easyops/legalqa-go/pkg/knowledge"
)

func TestKeywordIndex_SearchChinese(t *testing.T) {
	index := knowledge.NewKeywordIndex()

	docs := []string{
		"劳动者提前三十日以书面形式通知用人单位，可以解除劳动合同",
		"中华人民共和国年满十八周岁的公民有选举权和被选举权",
		"夫妻双方都有实行计划生育的义务",
	}
	index.Fit(docs)

	if index.Size() != 3 {
		t.Fatalf("expected 3 indexed documents, got %d", index.Size())
	}

	matches := index.Search("解除劳动合同需要提前多久通知", 2)
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].Index != 0 {
		t.Fatalf("expected labor law article as best match, got index %d", matches[0].Index)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatalf("matches not sorted by descending score: %v", matches)
		}
	}
}

func TestKeywordIndex_TopKLimit(t *testing.T) {
	index := knowledge.NewKeywordIndex()
	index.Fit([]string{"劳动合同", "劳动报酬", "劳动争议", "劳动保护"})

	matches := index.Search("劳动", 2)
	if len(matches) > 2 {
		t.Fatalf("expected at most 2 matches, got %d", len(matches))
	}
}

func TestKeywordIndex_EmptyIndex(t *testing.T) {
	index := knowledge.NewKeywordIndex()

	if matches := index.Search("任何查询", 5); len(matches) != 0 {
		t.Fatalf("expected no matches from empty index, got %d", len(matches))
	}
}

func TestKeywordIndex_NoOverlapReturnsNothing(t *testing.T) {
	index := knowledge.NewKeywordIndex()
	index.Fit([]string{"劳动合同解除"})

	if matches := index.Search("abcdef", 5); len(matches) != 0 {
		t.Fatalf("expected no matches for disjoint vocabulary, got %d", len(matches))
	}
}

func TestKeywordIndex_MixedLanguageTokens(t *testing.T) {
	index := knowledge.NewKeywordIndex()
	index.Fit([]string{"GDPR 第5条 数据处理原则", "劳动合同法 第37条"})

	matches := index.Search("gdpr 原则", 5)
	if len(matches) == 0 {
		t.Fatal("expected english token to match case-insensitively")
	}
	if matches[0].Index != 0 {
		t.Fatalf("expected document 0 as best match, got %d", matches[0].Index)
	}
}
