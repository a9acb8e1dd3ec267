package model

// Document 是写入索引的一篇文章. ID 不进入 _source,
// 批量导入时由位置决定(从 1 开始),每次全量导入都会重新生成
type Document struct {
	ID        string    `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"content_embedding,omitempty"`
}

// GetEmbeddingString 返回用于生成向量的文本
func (d *Document) GetEmbeddingString() string {
	return d.Content
}

func (d *Document) SetEmbedding(embedding []float32) {
	d.Embedding = embedding
}
