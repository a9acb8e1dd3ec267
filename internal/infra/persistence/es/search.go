package es

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/LouYuanbo1/wikisearch/internal/domain/model"
	"github.com/LouYuanbo1/wikisearch/internal/domain/query"
	"github.com/LouYuanbo1/wikisearch/internal/domain/schema"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
	"go.uber.org/zap"
)

type searchResponse struct {
	Hits types.HitsMetadata `json:"hits"`
}

// AddOne 写入单篇文档并立即 refresh,返回时文档已可被搜索到.
// doc.ID 为空时由引擎生成 ID
func (c *searchClient) AddOne(ctx context.Context, index string, doc model.Document) (string, error) {
	if err := schema.ValidateIndexName(index); err != nil {
		return "", err
	}
	method, path := http.MethodPost, indexPath(index, "_doc")
	if doc.ID != "" {
		method, path = http.MethodPut, indexPath(index, "_doc", doc.ID)
	}
	if c.embedder != nil {
		docs, err := c.embedBatch(ctx, []model.Document{doc})
		if err != nil {
			return "", err
		}
		doc = docs[0]
	}
	res, err := c.sendJSON(ctx, method, path+"?refresh=true", doc)
	if err != nil {
		return "", fmt.Errorf("failed to index doc to %s: %w", index, err)
	}
	var created struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(res.Body, &created); err != nil {
		return "", fmt.Errorf("failed to decode index response: %w", err)
	}
	return created.ID, nil
}

// Query 提交任意查询变体
func (c *searchClient) Query(ctx context.Context, index string, q query.Query) (*model.SearchResult, error) {
	if err := schema.ValidateIndexName(index); err != nil {
		return nil, err
	}
	body, err := q.Body(c.dialect)
	if err != nil {
		return nil, err
	}
	res, err := c.sendJSON(ctx, http.MethodPost, indexPath(index, "_search"), body)
	if err != nil {
		return nil, fmt.Errorf("%s search on %s failed: %w", q.Kind(), index, err)
	}
	result, err := decodeSearchResult(res.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("search done",
		zap.String("index", index),
		zap.String("kind", string(q.Kind())),
		zap.Int64("total", result.Total),
		zap.Int("hits", len(result.Hits)))
	return result, nil
}

func (c *searchClient) Search(ctx context.Context, index, keyword string, size int) (*model.SearchResult, error) {
	return c.Query(ctx, index, query.NewKeywordMatch(keyword, size))
}

// MoreLikeThis 先确认种子文档存在: 引擎对不存在的 like 文档只会返回空结果
func (c *searchClient) MoreLikeThis(ctx context.Context, index, documentID string, size int) (*model.SearchResult, error) {
	q := query.NewMoreLikeThis(index, documentID, size)
	if _, err := q.Body(c.dialect); err != nil {
		return nil, err
	}
	if _, err := c.sendJSON(ctx, http.MethodGet, indexPath(index, "_doc", documentID)+"?_source=false", nil); err != nil {
		return nil, fmt.Errorf("reference document %s/%s: %w", index, documentID, err)
	}
	return c.Query(ctx, index, q)
}

func (c *searchClient) ListAll(ctx context.Context, index string) (*model.SearchResult, error) {
	return c.Query(ctx, index, query.NewListAll())
}

func (c *searchClient) SemanticSearch(ctx context.Context, index, text string, k int) (*model.SearchResult, error) {
	if c.embedder == nil {
		return nil, ErrEmbedderNotConfigured
	}
	vectors, err := c.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for the query")
	}
	return c.Query(ctx, index, query.NewSemantic(vectors[0], k))
}

// IndexStats 原样保留 _stats 响应,另外取出主分片的文档数和存储大小
func (c *searchClient) IndexStats(ctx context.Context, index string) (*model.IndexStats, error) {
	if err := schema.ValidateIndexName(index); err != nil {
		return nil, err
	}
	res, err := c.sendJSON(ctx, http.MethodGet, indexPath(index, "_stats"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats of %s: %w", index, err)
	}
	var parsed struct {
		All struct {
			Primaries struct {
				Docs struct {
					Count int64 `json:"count"`
				} `json:"docs"`
				Store struct {
					SizeInBytes int64 `json:"size_in_bytes"`
				} `json:"store"`
			} `json:"primaries"`
		} `json:"_all"`
	}
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}
	return &model.IndexStats{
		DocCount:       parsed.All.Primaries.Docs.Count,
		StoreSizeBytes: parsed.All.Primaries.Store.SizeInBytes,
		Raw:            res.Body,
	}, nil
}

func decodeSearchResult(body []byte) (*model.SearchResult, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	// 预分配切片容量,避免多次扩容
	result := &model.SearchResult{
		Hits: make([]model.Hit, 0, len(resp.Hits.Hits)),
		Raw:  body,
	}
	for _, h := range resp.Hits.Hits {
		hit := model.Hit{
			Source:    h.Source_,
			Highlight: h.Highlight,
		}
		if h.Id_ != nil {
			hit.ID = *h.Id_
		}
		if h.Score_ != nil {
			hit.Score = float64(*h.Score_)
		}
		var doc model.Document
		if err := json.Unmarshal(h.Source_, &doc); err == nil {
			hit.Title, hit.Content = doc.Title, doc.Content
		}
		result.Hits = append(result.Hits, hit)
	}
	if resp.Hits.Total != nil {
		result.Total = resp.Hits.Total.Value
		result.Relation = resp.Hits.Total.Relation.String()
	} else {
		result.Total = int64(len(result.Hits))
	}
	return result, nil
}
