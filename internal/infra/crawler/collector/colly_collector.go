package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/wikisearch/internal/config"
	"github.com/LouYuanbo1/wikisearch/internal/logger"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

type collyCrawler struct {
	colly  *colly.Collector
	logger *zap.Logger
}

func InitCollyCrawler(config *config.Config, l *zap.Logger) (CollyCrawler, error) {
	var opts []colly.CollectorOption
	opts = append(opts,
		colly.UserAgent(config.Colly.UserAgent),
		colly.AllowedDomains(config.Colly.AllowedDomains...),
		colly.AllowURLRevisit(),
	)
	if config.Colly.IgnoreRobotsTxt {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}
	c := colly.NewCollector(opts...)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: config.Colly.Parallelism,
		Delay:       time.Duration(config.Colly.DelayMs) * time.Millisecond,
		RandomDelay: time.Duration(config.Colly.RandomDelayMs) * time.Millisecond,
	}); err != nil {
		return nil, fmt.Errorf("failed to set colly limit rule: %w", err)
	}
	l = logger.OrNop(l)
	l.Info("colly crawler ready",
		zap.Strings("allowed_domains", config.Colly.AllowedDomains),
		zap.Int("parallelism", config.Colly.Parallelism),
		zap.Int("delay_ms", config.Colly.DelayMs),
		zap.Int("random_delay_ms", config.Colly.RandomDelayMs))
	return &collyCrawler{colly: c, logger: l}, nil
}

// Fetch 在克隆出的 collector 上访问一个 URL 并返回响应体.
// 克隆共享限速规则,但回调互不影响,所以可以并发调用
func (c *collyCrawler) Fetch(ctx context.Context, url string) ([]byte, error) {
	cc := c.colly.Clone()
	cc.Context = ctx

	var body []byte
	var status int
	cc.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
	})
	cc.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
	})

	if err := cc.Visit(url); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("访问URL失败 %s: %w", url, ctxErr)
		}
		return nil, fmt.Errorf("访问URL失败 %s (status %d): %w", url, status, err)
	}
	c.logger.Debug("fetched", zap.String("url", url), zap.Int("status", status), zap.Int("bytes", len(body)))
	return body, nil
}
