package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/easyops/legalqa-go/pkg/core/errors"
)

// Store 知识库接口
//
// 提供两个独立的检索信号：向量相似检索与关键词检索。
// 两个信号都返回空集是合法的终止状态，不是错误。
type Store interface {
	// Add 添加条文
	Add(ctx context.Context, passages []Passage) error
	// SimilaritySearch 按嵌入距离检索最相似的 k 条条文
	SimilaritySearch(ctx context.Context, query string, k int) ([]Passage, error)
	// KeywordSearch 按词法匹配检索最相关的 k 条条文
	KeywordSearch(ctx context.Context, query string, k int) ([]Passage, error)
	// Size 返回条文数量
	Size() int
}

// Embedder 嵌入器接口
type Embedder interface {
	// Embed 生成文本嵌入向量
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// InMemoryStore 内存知识库
//
// 同时维护向量索引和关键词索引。
type InMemoryStore struct {
	embedder Embedder
	passages []Passage
	keyword  *KeywordIndex
	mu       sync.RWMutex
}

// NewInMemoryStore 创建内存知识库
func NewInMemoryStore(embedder Embedder) *InMemoryStore {
	return &InMemoryStore{
		embedder: embedder,
		keyword:  NewKeywordIndex(),
	}
}

// Add 添加条文
//
// 缺少向量的条文会通过嵌入器补齐；关键词索引整体重建，
// 使 IDF 统计覆盖全部文档。
func (s *InMemoryStore) Add(ctx context.Context, passages []Passage) error {
	if len(passages) == 0 {
		return nil
	}

	// 补齐缺失的向量
	var missing []int
	var texts []string
	for i, p := range passages {
		if len(p.Vector) == 0 {
			missing = append(missing, i)
			texts = append(texts, p.Content)
		}
	}

	if len(missing) > 0 {
		if s.embedder == nil {
			return errors.ErrEmbeddingFailed
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return errors.WrapError(err, "embed passages")
		}
		for j, i := range missing {
			if j < len(vectors) {
				passages[i].Vector = vectors[j]
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.passages = append(s.passages, passages...)

	contents := make([]string, len(s.passages))
	for i, p := range s.passages {
		contents[i] = p.Content
	}
	s.keyword.Fit(contents)

	return nil
}

// SimilaritySearch 按嵌入距离检索最相似的 k 条条文
func (s *InMemoryStore) SimilaritySearch(ctx context.Context, query string, k int) ([]Passage, error) {
	if s.embedder == nil {
		return nil, errors.ErrEmbeddingFailed
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, errors.WrapError(err, "embed query")
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	queryVector := vectors[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		passage Passage
		score   float32
	}

	results := make([]scored, 0, len(s.passages))
	for _, p := range s.passages {
		if len(p.Vector) == 0 {
			continue
		}
		results = append(results, scored{passage: p, score: cosineSimilarity(queryVector, p.Vector)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if k > len(results) {
		k = len(results)
	}

	out := make([]Passage, k)
	for i := 0; i < k; i++ {
		out[i] = results[i].passage
	}
	return out, nil
}

// KeywordSearch 按词法匹配检索最相关的 k 条条文
func (s *InMemoryStore) KeywordSearch(ctx context.Context, query string, k int) ([]Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.keyword.Search(query, k)

	out := make([]Passage, 0, len(matches))
	for _, m := range matches {
		if m.Index < len(s.passages) {
			out = append(out, s.passages[m.Index])
		}
	}
	return out, nil
}

// Size 返回条文数量
func (s *InMemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passages)
}

// cosineSimilarity 计算余弦相似度
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64

	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// compile-time interface check
var _ Store = (*InMemoryStore)(nil)
