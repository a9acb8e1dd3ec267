package embedding

import "context"

type Embedder interface {
	// Embed 返回与输入一一对应的向量
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	BatchSize() int
}
