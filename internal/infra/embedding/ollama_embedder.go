package embedding

import (
	"context"
	"fmt"
	"strconv"

	"github.com/LouYuanbo1/wikisearch/internal/config"
	"github.com/cloudwego/eino-ext/components/embedding/ollama"
	einoembedding "github.com/cloudwego/eino/components/embedding"
)

type embedder struct {
	model     einoembedding.Embedder
	batchSize int
}

// InitEmbedder 初始化 ollama 嵌入器,embedder.enabled 为 false 时返回 nil
func InitEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	if !cfg.Embedder.Enabled {
		return nil, nil
	}
	model, err := ollama.NewEmbedder(ctx, &ollama.EmbeddingConfig{
		Model:   cfg.Embedder.Model,
		BaseURL: cfg.Embedder.Host + ":" + strconv.Itoa(cfg.Embedder.Port),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama embedder: %w", err)
	}
	return newEmbedder(model, cfg.Embedder.BatchSize), nil
}

// newEmbedder 适配任意 eino 嵌入组件
func newEmbedder(model einoembedding.Embedder, batchSize int) Embedder {
	return &embedder{model: model, batchSize: batchSize}
}

func (e *embedder) BatchSize() int {
	return e.batchSize
}

func (e *embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.model.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return toFloat32(vectors), nil
}

// EmbedStrings 返回 [][]float64,索引里存的是 float32
func toFloat32(vectors [][]float64) [][]float32 {
	out := make([][]float32, 0, len(vectors))
	for _, v := range vectors {
		f := make([]float32, len(v))
		for i, x := range v {
			f[i] = float32(x)
		}
		out = append(out, f)
	}
	return out
}

// EmbedInBatches 按 BatchSize 分批调用 Embed
func EmbedInBatches(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	size := e.BatchSize()
	if size <= 0 {
		size = len(texts)
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		vectors, err := e.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}
