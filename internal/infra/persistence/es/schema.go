package es

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/LouYuanbo1/wikisearch/internal/domain/schema"
	"go.uber.org/zap"
)

// CreateIndex 创建索引. 索引已存在时返回匹配 ErrIndexAlreadyExists 的错误,
// 需要重建时调用方先 DeleteIndex
func (c *searchClient) CreateIndex(ctx context.Context, def schema.IndexDefinition) error {
	body, err := def.Body(c.dialect)
	if err != nil {
		return fmt.Errorf("invalid index definition: %w", err)
	}
	if _, err := c.sendJSON(ctx, http.MethodPut, indexPath(def.Name), body); err != nil {
		return fmt.Errorf("failed to create index %s: %w", def.Name, err)
	}
	c.logger.Info("index created",
		zap.String("index", def.Name),
		zap.Int("vector_dims", def.VectorDims))
	return nil
}

func (c *searchClient) DeleteIndex(ctx context.Context, index string) error {
	if err := schema.ValidateIndexName(index); err != nil {
		return err
	}
	if _, err := c.sendJSON(ctx, http.MethodDelete, indexPath(index), nil); err != nil {
		return fmt.Errorf("failed to delete index %s: %w", index, err)
	}
	c.logger.Info("index deleted", zap.String("index", index))
	return nil
}

func (c *searchClient) IndexExists(ctx context.Context, index string) (bool, error) {
	if err := schema.ValidateIndexName(index); err != nil {
		return false, err
	}
	_, err := c.sendJSON(ctx, http.MethodHead, indexPath(index), nil)
	if err == nil {
		return true, nil
	}
	var engineErr *EngineError
	if errors.As(err, &engineErr) && engineErr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("failed to check index existence %s: %w", index, err)
}
