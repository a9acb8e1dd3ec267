package model

import "encoding/json"

type Hit struct {
	ID        string              `json:"id"`
	Score     float64             `json:"score"`
	Title     string              `json:"title"`
	Content   string              `json:"content,omitempty"`
	Source    json.RawMessage     `json:"source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// SearchResult 每次查询新生成,不做缓存. Raw 保留引擎原始响应
type SearchResult struct {
	Total    int64           `json:"total"`
	Relation string          `json:"relation,omitempty"`
	Hits     []Hit           `json:"hits"`
	Raw      json.RawMessage `json:"-"`
}

type Token struct {
	Token       string `json:"token"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Type        string `json:"type"`
	Position    int    `json:"position"`
}

type IndexStats struct {
	DocCount       int64           `json:"doc_count"`
	StoreSizeBytes int64           `json:"store_size_bytes"`
	Raw            json.RawMessage `json:"-"`
}

type ItemFailure struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// BulkResult 汇总一次批量导入. Sent 是从 ID 1 起连续成功提交的文档数,
// 可作为断点续传的偏移量,之后的文档不一定已写入
type BulkResult struct {
	Batches int           `json:"batches"`
	Sent    int           `json:"sent"`
	Indexed int           `json:"indexed"`
	Failed  []ItemFailure `json:"failed,omitempty"`
}
