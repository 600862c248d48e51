package knowledge

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// KeywordIndex TF-IDF 关键词索引
//
// 为知识库提供本地词法检索信号，无需外部 API。
// 中文按单字切分，与向量检索互补：向量检索擅长语义改写，
// 词法检索擅长法律术语的精确匹配。
type KeywordIndex struct {
	vocabulary map[string]int // 词汇表：词 -> 索引
	idf        []float32      // 逆文档频率
	vectors    [][]float32    // 已向量化的文档
	mu         sync.RWMutex
}

// NewKeywordIndex 创建关键词索引
func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{
		vocabulary: make(map[string]int),
	}
}

// tokenize 分词
//
// 支持英文空格分词和中文单字切分。
func (x *KeywordIndex) tokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	var currentWord strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			// 中文字符单独成词
			if unicode.Is(unicode.Han, r) {
				if currentWord.Len() > 0 {
					tokens = append(tokens, currentWord.String())
					currentWord.Reset()
				}
				tokens = append(tokens, string(r))
			} else {
				currentWord.WriteRune(r)
			}
		} else {
			if currentWord.Len() > 0 {
				tokens = append(tokens, currentWord.String())
				currentWord.Reset()
			}
		}
	}

	if currentWord.Len() > 0 {
		tokens = append(tokens, currentWord.String())
	}

	return tokens
}

// Fit 根据文档集合构建词汇表、计算 IDF 并向量化全部文档
func (x *KeywordIndex) Fit(documents []string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	wordDocCount := make(map[string]int)
	allWords := make(map[string]struct{})

	for _, doc := range documents {
		tokens := x.tokenize(doc)
		seen := make(map[string]struct{})
		for _, token := range tokens {
			allWords[token] = struct{}{}
			if _, ok := seen[token]; !ok {
				wordDocCount[token]++
				seen[token] = struct{}{}
			}
		}
	}

	// 词汇表按字母顺序排序以保证一致性
	words := make([]string, 0, len(allWords))
	for word := range allWords {
		words = append(words, word)
	}
	sort.Strings(words)

	x.vocabulary = make(map[string]int, len(words))
	for i, word := range words {
		x.vocabulary[word] = i
	}

	x.idf = make([]float32, len(words))
	n := float64(len(documents))
	for word, idx := range x.vocabulary {
		df := float64(wordDocCount[word])
		x.idf[idx] = float32(math.Log(n/df) + 1.0)
	}

	x.vectors = make([][]float32, len(documents))
	for i, doc := range documents {
		x.vectors[i] = x.transform(doc)
	}
}

// transform 将文本转换为 TF-IDF 向量（调用者需持有锁）
func (x *KeywordIndex) transform(text string) []float32 {
	if len(x.vocabulary) == 0 {
		return nil
	}

	tokens := x.tokenize(text)
	if len(tokens) == 0 {
		return make([]float32, len(x.vocabulary))
	}

	tf := make(map[string]int)
	for _, token := range tokens {
		tf[token]++
	}

	vector := make([]float32, len(x.vocabulary))
	for word, count := range tf {
		if idx, ok := x.vocabulary[word]; ok {
			// TF = log(1 + count)
			tfValue := float32(math.Log(1 + float64(count)))
			vector[idx] = tfValue * x.idf[idx]
		}
	}

	normalize(vector)
	return vector
}

// Search 搜索与查询词法相似的文档，返回按分数降序的索引
func (x *KeywordIndex) Search(query string, topK int) []LexicalMatch {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.vectors) == 0 {
		return nil
	}

	queryVector := x.transform(query)
	if queryVector == nil {
		return nil
	}

	matches := make([]LexicalMatch, 0, len(x.vectors))
	for i, docVector := range x.vectors {
		score := dot(queryVector, docVector)
		if score <= 0 {
			continue
		}
		matches = append(matches, LexicalMatch{Index: i, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK > 0 && topK < len(matches) {
		return matches[:topK]
	}
	return matches
}

// Size 返回已索引的文档数量
func (x *KeywordIndex) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// LexicalMatch 词法检索结果
type LexicalMatch struct {
	Index int     // 文档索引
	Score float32 // 相似度分数
}

// normalize L2 归一化
func normalize(vector []float32) {
	var norm float32
	for _, val := range vector {
		norm += val * val
	}
	if norm > 0 {
		norm = float32(math.Sqrt(float64(norm)))
		for i := range vector {
			vector[i] /= norm
		}
	}
}

// dot 计算点积（向量已归一化，等于余弦相似度）
func dot(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
