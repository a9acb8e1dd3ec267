package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/LouYuanbo1/wikisearch/internal/domain/model"
	"github.com/LouYuanbo1/wikisearch/internal/domain/schema"
	"github.com/LouYuanbo1/wikisearch/internal/infra/embedding"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BulkBatchSize 每个 _bulk 请求携带的文档数
const BulkBatchSize = 1000

type bulkAction struct {
	Index bulkTarget `json:"index"`
}

type bulkTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Took   int                           `json:"took"`
	Errors bool                          `json:"errors"`
	Items  []map[string]bulkResponseItem `json:"items"`
}

type bulkResponseItem struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

type batchOutcome struct {
	sent    int
	indexed int
	failed  []model.ItemFailure
}

// BulkLoad 按输入顺序分配 ID 1..N,每 1000 篇提交一次 _bulk,结尾不足 1000 篇的部分再提交一次.
// 某个批次提交失败时立即返回,已提交的批次不会回滚; 返回的 BulkResult.Sent 可作为续传偏移量.
// 批次内单个文档的失败记录在 BulkResult.Failed 中,不会中断导入
func (c *searchClient) BulkLoad(ctx context.Context, index string, docs []model.Document) (*model.BulkResult, error) {
	if err := schema.ValidateIndexName(index); err != nil {
		return nil, err
	}
	result := &model.BulkResult{}
	for start := 0; start < len(docs); start += BulkBatchSize {
		end := min(start+BulkBatchSize, len(docs))
		out, err := c.sendBatch(ctx, index, docs[start:end], start)
		if err != nil {
			return result, fmt.Errorf("failed to bulk index documents %d-%d: %w", start+1, end, err)
		}
		result.Batches++
		merge(result, out)
	}
	c.logger.Info("bulk load completed",
		zap.String("index", index),
		zap.Int("batches", result.Batches),
		zap.Int("indexed", result.Indexed),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// BulkLoadParallel 与 BulkLoad 切分出相同的批次,由最多 workers 个 goroutine 并发提交.
// 每个批次预先分到固定的 ID 区间,所以 ID 与顺序导入完全一致.
// 任一批次失败会取消尚未开始的批次. 批次完成顺序不定,
// Sent 只统计从第一个批次起连续成功的部分,之后完成的批次计入 Indexed 但不推进续传偏移量
func (c *searchClient) BulkLoadParallel(ctx context.Context, index string, docs []model.Document, workers int) (*model.BulkResult, error) {
	if workers <= 1 {
		return c.BulkLoad(ctx, index, docs)
	}
	if err := schema.ValidateIndexName(index); err != nil {
		return nil, err
	}

	outcomes := make([]*batchOutcome, (len(docs)+BulkBatchSize-1)/BulkBatchSize)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range outcomes {
		start := i * BulkBatchSize
		end := min(start+BulkBatchSize, len(docs))
		g.Go(func() error {
			out, err := c.sendBatch(gctx, index, docs[start:end], start)
			if err != nil {
				return fmt.Errorf("failed to bulk index documents %d-%d: %w", start+1, end, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	err := g.Wait()

	result := &model.BulkResult{}
	contiguous := true
	for _, out := range outcomes {
		if out == nil {
			contiguous = false
			continue
		}
		result.Batches++
		result.Indexed += out.indexed
		result.Failed = append(result.Failed, out.failed...)
		if contiguous {
			result.Sent += out.sent
		}
	}
	c.logger.Info("parallel bulk load completed",
		zap.String("index", index),
		zap.Int("workers", workers),
		zap.Int("batches", result.Batches),
		zap.Int("sent", result.Sent),
		zap.Int("indexed", result.Indexed),
		zap.Int("failed", len(result.Failed)),
		zap.Error(err))
	return result, err
}

func merge(result *model.BulkResult, out *batchOutcome) {
	result.Sent += out.sent
	result.Indexed += out.indexed
	result.Failed = append(result.Failed, out.failed...)
}

// sendBatch 提交一个批次,offset 是该批次第一个文档在整个输入中的下标
func (c *searchClient) sendBatch(ctx context.Context, index string, docs []model.Document, offset int) (*batchOutcome, error) {
	if c.embedder != nil {
		var err error
		if docs, err = c.embedBatch(ctx, docs); err != nil {
			return nil, err
		}
	}

	payload, err := encodeBatch(index, docs, offset)
	if err != nil {
		return nil, err
	}
	res, err := c.transport.Send(ctx, http.MethodPost, "/_bulk", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	out, err := inspectBulkResponse(res.Body, len(docs))
	if err != nil {
		return nil, err
	}
	c.logger.Info("bulk batch flushed",
		zap.String("index", index),
		zap.Int("first_id", offset+1),
		zap.Int("docs", len(docs)),
		zap.Int("failed", len(out.failed)))
	return out, nil
}

// encodeBatch 生成 NDJSON: 每篇文档一行 action 一行 source,每行以换行结尾
func encodeBatch(index string, docs []model.Document, offset int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, doc := range docs {
		action := bulkAction{Index: bulkTarget{Index: index, ID: strconv.Itoa(offset + i + 1)}}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode document %q: %w", doc.Title, err)
		}
	}
	return buf.Bytes(), nil
}

func inspectBulkResponse(body []byte, sent int) (*batchOutcome, error) {
	var resp bulkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode bulk response: %w", err)
	}
	out := &batchOutcome{sent: sent}
	for _, item := range resp.Items {
		for _, r := range item {
			if r.Error == nil && r.Status < 300 {
				out.indexed++
				continue
			}
			f := model.ItemFailure{ID: r.ID, Status: r.Status}
			if r.Error != nil {
				f.Type, f.Reason = r.Error.Type, r.Error.Reason
			}
			out.failed = append(out.failed, f)
		}
	}
	return out, nil
}

// embedBatch 返回带向量的副本,不修改调用方的切片
func (c *searchClient) embedBatch(ctx context.Context, docs []model.Document) ([]model.Document, error) {
	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].GetEmbeddingString()
	}
	vectors, err := embedding.EmbedInBatches(ctx, c.embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}
	out := slices.Clone(docs)
	for i := range out {
		out[i].SetEmbedding(vectors[i])
	}
	return out, nil
}
