package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/wikisearch/internal/domain/entity"
	"github.com/LouYuanbo1/wikisearch/internal/infra/csvstore"
	"github.com/LouYuanbo1/wikisearch/internal/logger"
	"go.uber.org/zap"
)

// 每抓取这么多篇文章打印一次进度
const progressEvery = 100

// Source 是电影条目的来源,由 wikipedia.Client 实现
type Source interface {
	MovieTitles(ctx context.Context, year int) ([]entity.MovieTitle, error)
	Article(ctx context.Context, title string) (entity.Article, error)
}

type Service interface {
	Source() Source
	// CollectTitles 依次抓取 [fromYear, toYear] 每年的电影标题,年与年之间暂停 yearDelay
	CollectTitles(ctx context.Context, fromYear, toYear int) ([]entity.MovieTitle, error)
	// CollectArticles 逐篇抓取正文. 单篇失败只记录日志并跳过
	CollectArticles(ctx context.Context, titles []entity.MovieTitle) ([]entity.Article, error)
}

type Options struct {
	YearDelay time.Duration
	// 非空时把结果写入对应的 CSV
	TitlesFile   string
	ArticlesFile string
}

type service struct {
	source Source
	opts   Options
}

func InitService(source Source, opts Options) Service {
	return &service{source: source, opts: opts}
}

func (s *service) Source() Source {
	return s.source
}

func (s *service) CollectTitles(ctx context.Context, fromYear, toYear int) ([]entity.MovieTitle, error) {
	if fromYear > toYear {
		return nil, fmt.Errorf("invalid year range %d-%d", fromYear, toYear)
	}
	l := logger.FromContext(ctx)
	var titles []entity.MovieTitle
	for year := fromYear; year <= toYear; year++ {
		if year > fromYear {
			if err := sleep(ctx, s.opts.YearDelay); err != nil {
				return nil, err
			}
		}
		found, err := s.source.MovieTitles(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("failed to collect titles of %d: %w", year, err)
		}
		titles = append(titles, found...)
	}
	l.Info("titles collected",
		zap.Int("from_year", fromYear),
		zap.Int("to_year", toYear),
		zap.Int("titles", len(titles)))

	if s.opts.TitlesFile != "" {
		if err := csvstore.WriteTitles(s.opts.TitlesFile, titles); err != nil {
			return nil, err
		}
		l.Info("titles saved", zap.String("file", s.opts.TitlesFile))
	}
	return titles, nil
}

func (s *service) CollectArticles(ctx context.Context, titles []entity.MovieTitle) ([]entity.Article, error) {
	l := logger.FromContext(ctx)
	articles := make([]entity.Article, 0, len(titles))
	skipped := 0
	for i, t := range titles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		article, err := s.source.Article(ctx, t.Title)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			skipped++
			l.Warn("skip article", zap.String("title", t.Title), zap.Error(err))
			continue
		}
		articles = append(articles, article)
		if i%progressEvery == 0 {
			l.Info("collecting articles", zap.Int("done", i+1), zap.Int("total", len(titles)))
		}
	}
	l.Info("articles collected",
		zap.Int("articles", len(articles)),
		zap.Int("skipped", skipped))

	if s.opts.ArticlesFile != "" {
		if err := csvstore.WriteArticles(s.opts.ArticlesFile, articles); err != nil {
			return nil, err
		}
		l.Info("articles saved", zap.String("file", s.opts.ArticlesFile))
	}
	return articles, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
