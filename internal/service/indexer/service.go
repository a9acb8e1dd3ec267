package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/LouYuanbo1/wikisearch/internal/domain/entity"
	"github.com/LouYuanbo1/wikisearch/internal/domain/model"
	"github.com/LouYuanbo1/wikisearch/internal/domain/schema"
	"github.com/LouYuanbo1/wikisearch/internal/infra/csvstore"
	"github.com/LouYuanbo1/wikisearch/internal/infra/persistence/es"
	"github.com/LouYuanbo1/wikisearch/internal/logger"
	"go.uber.org/zap"
)

type Service interface {
	Client() es.SearchClient
	Index() string
	// EnsureIndex 创建索引; recreate 为 true 时先删除已有索引
	EnsureIndex(ctx context.Context, recreate bool) error
	// Load 读取文章 CSV 并批量导入
	Load(ctx context.Context, path string, opts LoadOptions) (*model.BulkResult, error)
	LoadArticles(ctx context.Context, articles []entity.Article, opts LoadOptions) (*model.BulkResult, error)
}

type LoadOptions struct {
	// 导入前删除并重建索引; 否则索引不存在时才创建
	Recreate bool
	// >1 时并发提交批次
	Workers int
}

type service struct {
	client     es.SearchClient
	index      string
	vectorDims int
}

// InitService vectorDims 为 0 时索引不带向量字段
func InitService(client es.SearchClient, index string, vectorDims int) Service {
	return &service{client: client, index: index, vectorDims: vectorDims}
}

func (s *service) Client() es.SearchClient {
	return s.client
}

func (s *service) Index() string {
	return s.index
}

func (s *service) EnsureIndex(ctx context.Context, recreate bool) error {
	l := logger.FromContext(ctx)
	if recreate {
		err := s.client.DeleteIndex(ctx, s.index)
		switch {
		case err == nil:
			l.Info("existing index deleted", zap.String("index", s.index))
		case errors.Is(err, es.ErrIndexNotFound):
		default:
			return err
		}
	}
	def := schema.JapaneseArticleIndex(s.index, s.vectorDims)
	err := s.client.CreateIndex(ctx, def)
	if errors.Is(err, es.ErrIndexAlreadyExists) && !recreate {
		l.Info("index already exists, reusing it", zap.String("index", s.index))
		return nil
	}
	return err
}

func (s *service) Load(ctx context.Context, path string, opts LoadOptions) (*model.BulkResult, error) {
	articles, err := csvstore.ReadArticles(path)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("articles read", zap.String("file", path), zap.Int("articles", len(articles)))
	return s.LoadArticles(ctx, articles, opts)
}

func (s *service) LoadArticles(ctx context.Context, articles []entity.Article, opts LoadOptions) (*model.BulkResult, error) {
	// 先建索引,避免 _bulk 以动态 mapping 自动建出没有 kuromoji analyzer 的索引
	if err := s.EnsureIndex(ctx, opts.Recreate); err != nil {
		return nil, fmt.Errorf("failed to prepare index %s: %w", s.index, err)
	}
	docs := entity.ToDocuments(articles)

	var result *model.BulkResult
	var err error
	if opts.Workers > 1 {
		result, err = s.client.BulkLoadParallel(ctx, s.index, docs, opts.Workers)
	} else {
		result, err = s.client.BulkLoad(ctx, s.index, docs)
	}
	l := logger.FromContext(ctx)
	if err != nil {
		if result != nil {
			l.Error("bulk load interrupted",
				zap.String("index", s.index),
				zap.Int("sent", result.Sent),
				zap.Int("total", len(docs)),
				zap.Error(err))
		}
		return result, err
	}
	for _, f := range result.Failed {
		l.Warn("document rejected",
			zap.String("id", f.ID),
			zap.Int("status", f.Status),
			zap.String("type", f.Type),
			zap.String("reason", f.Reason))
	}
	l.Info("articles loaded",
		zap.String("index", s.index),
		zap.Int("batches", result.Batches),
		zap.Int("indexed", result.Indexed),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}
