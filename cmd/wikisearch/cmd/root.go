// Package cmd 实现 wikisearch 命令行
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LouYuanbo1/wikisearch/internal/config"
	"github.com/LouYuanbo1/wikisearch/internal/infra/crawler/collector"
	"github.com/LouYuanbo1/wikisearch/internal/infra/crawler/wikipedia"
	"github.com/LouYuanbo1/wikisearch/internal/infra/embedding"
	"github.com/LouYuanbo1/wikisearch/internal/infra/persistence/es"
	"github.com/LouYuanbo1/wikisearch/internal/logger"
	"github.com/LouYuanbo1/wikisearch/internal/service/crawler"
	"github.com/LouYuanbo1/wikisearch/internal/service/indexer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app 保存所有子命令共享的配置和依赖,在 PersistentPreRunE 中初始化
type app struct {
	defaultConfig []byte
	configPath    string
	index         string
	logLevel      string

	cfg    *config.Config
	logger *zap.Logger
}

// Execute 运行根命令,收到 SIGINT/SIGTERM 时取消 ctx
func Execute(defaultConfig []byte) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(defaultConfig).ExecuteContext(ctx)
}

func NewRootCmd(defaultConfig []byte) *cobra.Command {
	a := &app{defaultConfig: defaultConfig}

	cmd := &cobra.Command{
		Use:   "wikisearch",
		Short: "Crawl Japanese Wikipedia movie articles and search them with OpenSearch/Elasticsearch",
		Long: `wikisearch crawls movie articles from Japanese Wikipedia, loads them into an
OpenSearch or Elasticsearch index with kuromoji analysis, and queries them.

Examples:
  wikisearch crawl titles
  wikisearch crawl articles
  wikisearch load --recreate
  wikisearch search 東京
  wikisearch mlt 1`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (JSON or YAML); defaults to the embedded config")
	cmd.PersistentFlags().StringVarP(&a.index, "index", "i", "", "Index name; overrides search.index")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level; overrides logging.level")

	cmd.AddCommand(newCrawlCmd(a))
	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newLoadCmd(a))
	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newMLTCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newSemanticCmd(a))

	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadConfig(a.configPath)
	} else {
		a.cfg, err = config.ParseConfig(a.defaultConfig)
	}
	if err != nil {
		return err
	}
	if a.index != "" {
		a.cfg.Search.Index = a.index
		if err := a.cfg.Validate(); err != nil {
			return err
		}
	}
	level := a.cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logger, err = logger.NewLogger(a.cfg.Logging.Env, level); err != nil {
		return err
	}
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), a.logger))
	return nil
}

// searchClient 每次调用都新建客户端;一次命令只调用一次
func (a *app) searchClient(ctx context.Context) (es.SearchClient, error) {
	embedder, err := embedding.InitEmbedder(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	return es.InitSearchClient(ctx, a.cfg, embedder, a.logger)
}

func (a *app) indexer(ctx context.Context) (indexer.Service, error) {
	client, err := a.searchClient(ctx)
	if err != nil {
		return nil, err
	}
	dims := 0
	if a.cfg.Embedder.Enabled {
		dims = a.cfg.Embedder.Dims
	}
	return indexer.InitService(client, a.cfg.Search.Index, dims), nil
}

func (a *app) crawler() (crawler.Service, error) {
	fetcher, err := collector.InitCollyCrawler(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	source := wikipedia.NewClient(fetcher, wikipedia.Endpoint(a.cfg.Wikipedia.Language), a.logger)
	return crawler.InitService(source, crawler.Options{
		YearDelay:    time.Duration(a.cfg.Wikipedia.YearDelayMs) * time.Millisecond,
		TitlesFile:   a.cfg.Wikipedia.TitlesFile,
		ArticlesFile: a.cfg.Wikipedia.ArticlesFile,
	}), nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
