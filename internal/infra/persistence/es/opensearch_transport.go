package es

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/wikisearch/internal/config"
	"github.com/LouYuanbo1/wikisearch/internal/logger"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/opensearch-project/opensearch-go/v4"
	requestsigner "github.com/opensearch-project/opensearch-go/v4/signer/awsv2"
	"go.uber.org/zap"
)

// newOpenSearchTransport 创建 OpenSearch 客户端. sign 开启时用环境中的 AWS 凭证
// (环境变量、共享配置、实例角色等)对每个请求做 SigV4 签名
func newOpenSearchTransport(ctx context.Context, cfg *config.Config, l *zap.Logger) (Transport, error) {
	osCfg := opensearch.Config{
		Addresses:    []string{cfg.Search.Address},
		Username:     cfg.Search.Username,
		Password:     cfg.Search.Password,
		DisableRetry: true,
		Transport:    newHTTPRoundTripper(cfg),
	}
	if cfg.Search.Sign {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Search.Region))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load aws config: %v", config.ErrInvalidConfig, err)
		}
		if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
			return nil, fmt.Errorf("%w: no aws credentials available: %v", config.ErrInvalidConfig, err)
		}
		signer, err := requestsigner.NewSignerWithService(awsCfg, cfg.Search.Service)
		if err != nil {
			return nil, fmt.Errorf("failed to create request signer: %w", err)
		}
		osCfg.Signer = signer
		// 签名后不能再设置 basic auth
		osCfg.Username, osCfg.Password = "", ""
	}
	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenSearch client: %w", err)
	}
	logger.OrNop(l).Info("opensearch transport ready",
		zap.String("address", cfg.Search.Address),
		zap.Bool("signed", cfg.Search.Sign),
		zap.String("region", cfg.Search.Region))
	return newHTTPTransport(client, l), nil
}
