package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/LouYuanbo1/wikisearch/internal/config"
	"github.com/LouYuanbo1/wikisearch/internal/domain/schema"
	"github.com/LouYuanbo1/wikisearch/internal/infra/embedding"
	"github.com/LouYuanbo1/wikisearch/internal/logger"
	"go.uber.org/zap"
)

type searchClient struct {
	transport Transport
	dialect   schema.Dialect
	// 可为 nil,此时不写入向量且 SemanticSearch 不可用
	embedder embedding.Embedder
	logger   *zap.Logger
}

// InitSearchClient 根据配置创建 transport 和客户端
func InitSearchClient(ctx context.Context, cfg *config.Config, embedder embedding.Embedder, l *zap.Logger) (SearchClient, error) {
	transport, err := InitTransport(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	return NewSearchClient(transport, schema.Dialect(cfg.Search.Driver), embedder, l), nil
}

func NewSearchClient(transport Transport, dialect schema.Dialect, embedder embedding.Embedder, l *zap.Logger) SearchClient {
	return &searchClient{
		transport: transport,
		dialect:   dialect,
		embedder:  embedder,
		logger:    logger.OrNop(l),
	}
}

func (c *searchClient) Transport() Transport {
	return c.transport
}

func (c *searchClient) Dialect() schema.Dialect {
	return c.dialect
}

// sendJSON 将 body 编码为 JSON 后发送,body 为 nil 时不带请求体
func (c *searchClient) sendJSON(ctx context.Context, method, path string, body any) (*Response, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	return c.transport.Send(ctx, method, path, r)
}

func indexPath(index string, segments ...string) string {
	p := "/" + index
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}
