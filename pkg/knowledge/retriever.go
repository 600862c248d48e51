package knowledge

import (
	"context"
)

// HybridRetriever 混合检索器
//
// 合并向量检索与关键词检索两个独立信号：向量信号先行，
// 词法信号补充，按条文文本精确去重，首次出现者保留位置。
// 不做跨信号的分数比较，统一的相关性判定交给后续的
// LLM 重排序。
type HybridRetriever struct {
	store       Store
	vectorTopK  int
	keywordTopK int
}

// HybridRetrieverOption 混合检索器选项
type HybridRetrieverOption func(*HybridRetriever)

// WithVectorTopK 设置向量检索返回数量
func WithVectorTopK(k int) HybridRetrieverOption {
	return func(r *HybridRetriever) {
		r.vectorTopK = k
	}
}

// WithKeywordTopK 设置关键词检索返回数量
func WithKeywordTopK(k int) HybridRetrieverOption {
	return func(r *HybridRetriever) {
		r.keywordTopK = k
	}
}

// NewHybridRetriever 创建混合检索器
func NewHybridRetriever(store Store, opts ...HybridRetrieverOption) *HybridRetriever {
	r := &HybridRetriever{
		store:       store,
		vectorTopK:  15,
		keywordTopK: 5,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Retrieve 执行混合检索，返回按检索顺序去重后的候选条文
//
// 两路信号都为空时返回空集，这是合法的终止状态。
// 索引错误原样向上传播。
func (r *HybridRetriever) Retrieve(ctx context.Context, query string) ([]Passage, error) {
	vectorDocs, err := r.store.SimilaritySearch(ctx, query, r.vectorTopK)
	if err != nil {
		return nil, err
	}

	keywordDocs, err := r.store.KeywordSearch(ctx, query, r.keywordTopK)
	if err != nil {
		return nil, err
	}

	// 合并并按条文文本精确去重，首次出现者保留位置
	seen := make(map[string]struct{}, len(vectorDocs)+len(keywordDocs))
	merged := make([]Passage, 0, len(vectorDocs)+len(keywordDocs))

	for _, doc := range append(vectorDocs, keywordDocs...) {
		if _, ok := seen[doc.Content]; ok {
			continue
		}
		seen[doc.Content] = struct{}{}
		merged = append(merged, doc)
	}

	return merged, nil
}
