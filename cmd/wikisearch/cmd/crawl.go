package cmd

import (
	"fmt"

	"github.com/LouYuanbo1/wikisearch/internal/infra/csvstore"
	"github.com/spf13/cobra"
)

func newCrawlCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl movie titles and articles from Wikipedia into CSV files",
	}
	cmd.AddCommand(newCrawlTitlesCmd(a))
	cmd.AddCommand(newCrawlArticlesCmd(a))
	return cmd
}

func newCrawlTitlesCmd(a *app) *cobra.Command {
	var fromYear, toYear int
	cmd := &cobra.Command{
		Use:   "titles",
		Short: "Collect movie titles from the yearly movie categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("from") {
				a.cfg.Wikipedia.FromYear = fromYear
			}
			if cmd.Flags().Changed("to") {
				a.cfg.Wikipedia.ToYear = toYear
			}
			svc, err := a.crawler()
			if err != nil {
				return err
			}
			titles, err := svc.CollectTitles(cmd.Context(), a.cfg.Wikipedia.FromYear, a.cfg.Wikipedia.ToYear)
			if err != nil {
				return err
			}
			printf(cmd, "%d titles written to %s\n", len(titles), a.cfg.Wikipedia.TitlesFile)
			return nil
		},
	}
	cmd.Flags().IntVar(&fromYear, "from", 0, "First year (default wikipedia.from_year)")
	cmd.Flags().IntVar(&toYear, "to", 0, "Last year, inclusive (default wikipedia.to_year)")
	return cmd
}

func newCrawlArticlesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "articles",
		Short: "Fetch the plain-text article of every title in the titles CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			titles, err := csvstore.ReadTitles(a.cfg.Wikipedia.TitlesFile)
			if err != nil {
				return fmt.Errorf("run 'wikisearch crawl titles' first: %w", err)
			}
			svc, err := a.crawler()
			if err != nil {
				return err
			}
			articles, err := svc.CollectArticles(cmd.Context(), titles)
			if err != nil {
				return err
			}
			printf(cmd, "%d articles written to %s\n", len(articles), a.cfg.Wikipedia.ArticlesFile)
			return nil
		},
	}
}
