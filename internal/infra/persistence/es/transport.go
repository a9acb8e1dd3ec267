package es

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LouYuanbo1/wikisearch/internal/config"
	"github.com/LouYuanbo1/wikisearch/internal/logger"
	"go.uber.org/zap"
)

type Response struct {
	StatusCode int
	Body       []byte
}

// Transport 发送一个 JSON 请求并返回完整响应.
// 网络错误返回 *TransportError,非 2xx 返回 *EngineError,不做任何重试
type Transport interface {
	Send(ctx context.Context, method, path string, body io.Reader) (*Response, error)
}

// performer 是 go-elasticsearch 与 opensearch-go 客户端共有的底层接口
type performer interface {
	Perform(req *http.Request) (*http.Response, error)
}

type httpTransport struct {
	client performer
	logger *zap.Logger
}

func newHTTPTransport(client performer, l *zap.Logger) *httpTransport {
	return &httpTransport{client: client, logger: logger.OrNop(l)}
}

func (t *httpTransport) Send(ctx context.Context, method, path string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := t.client.Perform(req)
	if err != nil {
		t.logger.Debug("request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	t.logger.Debug("request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, newEngineError(res.StatusCode, data)
	}
	return &Response{StatusCode: res.StatusCode, Body: data}, nil
}

// InitTransport 按 search.driver 选择底层客户端
func InitTransport(ctx context.Context, cfg *config.Config, l *zap.Logger) (Transport, error) {
	switch cfg.Search.Driver {
	case config.DriverOpenSearch:
		return newOpenSearchTransport(ctx, cfg, l)
	case config.DriverElasticsearch:
		return newElasticTransport(cfg, l)
	default:
		return nil, fmt.Errorf("%w: unknown search driver %q", config.ErrInvalidConfig, cfg.Search.Driver)
	}
}

func newHTTPRoundTripper(cfg *config.Config) *http.Transport {
	return &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
		IdleConnTimeout:       90 * time.Second,
		// 仅用于开发环境的自签名证书
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Search.InsecureSkipVerify},
	}
}
