// Package knowledge 提供法律知识库的存储与混合检索功能
package knowledge

// Metadata 条文出处元数据
type Metadata struct {
	// SourceName 法律文件简短名（文件名不含后缀）
	SourceName string `json:"source_name,omitempty"`
	// SourceText 条文编号标题（如 "第五十九条"）
	SourceText string `json:"source_text,omitempty"`
	// SourceFile 原始文件路径
	SourceFile string `json:"source_file,omitempty"`
}

// Passage 知识库中的一段条文
//
// 检索返回后不可变；去重以 Content 的精确文本为准，
// 因此 Content 与 Metadata 的对应关系在合并过程中保持稳定。
type Passage struct {
	// ID 唯一标识
	ID string `json:"id"`
	// Content 条文内容
	Content string `json:"content"`
	// Metadata 出处元数据
	Metadata Metadata `json:"metadata"`
	// Vector 嵌入向量
	Vector []float32 `json:"vector,omitempty"`
}
