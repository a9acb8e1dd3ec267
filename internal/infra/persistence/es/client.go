package es

import (
	"context"

	"github.com/LouYuanbo1/wikisearch/internal/domain/model"
	"github.com/LouYuanbo1/wikisearch/internal/domain/query"
	"github.com/LouYuanbo1/wikisearch/internal/domain/schema"
)

/*
所有操作都是同步的: 每次调用阻塞到 HTTP 往返结束.
超时由调用方通过 ctx 控制
*/
type SearchClient interface {
	Transport() Transport
	Dialect() schema.Dialect

	// 索引管理
	CreateIndex(ctx context.Context, def schema.IndexDefinition) error
	DeleteIndex(ctx context.Context, index string) error
	IndexExists(ctx context.Context, index string) (bool, error)

	// 写入
	BulkLoad(ctx context.Context, index string, docs []model.Document) (*model.BulkResult, error)
	BulkLoadParallel(ctx context.Context, index string, docs []model.Document, workers int) (*model.BulkResult, error)
	AddOne(ctx context.Context, index string, doc model.Document) (string, error)

	// 查询
	Query(ctx context.Context, index string, q query.Query) (*model.SearchResult, error)
	Search(ctx context.Context, index, keyword string, size int) (*model.SearchResult, error)
	MoreLikeThis(ctx context.Context, index, documentID string, size int) (*model.SearchResult, error)
	ListAll(ctx context.Context, index string) (*model.SearchResult, error)
	SemanticSearch(ctx context.Context, index, text string, k int) (*model.SearchResult, error)
	IndexStats(ctx context.Context, index string) (*model.IndexStats, error)

	// 调试 analyzer 的分词结果
	Analyze(ctx context.Context, index, text, analyzer string) ([]model.Token, error)
}
