package es

import (
	"fmt"

	"github.com/LouYuanbo1/wikisearch/internal/config"
	"github.com/elastic/go-elasticsearch/v9"
	"go.uber.org/zap"
)

func newElasticTransport(cfg *config.Config, l *zap.Logger) (Transport, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Username:     cfg.Search.Username,
		Password:     cfg.Search.Password,
		Addresses:    []string{cfg.Search.Address},
		DisableRetry: true,
		Transport:    newHTTPRoundTripper(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Elasticsearch client: %w", err)
	}
	return newHTTPTransport(client, l), nil
}
