package cmd

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/LouYuanbo1/wikisearch/internal/domain/model"
	"github.com/LouYuanbo1/wikisearch/internal/domain/query"
	"github.com/LouYuanbo1/wikisearch/internal/domain/schema"
	"github.com/spf13/cobra"
)

type outputOptions struct {
	raw       bool
	highlight bool
}

func (o *outputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.raw, "raw", false, "Print the engine response as is")
}

func newSearchCmd(a *app) *cobra.Command {
	var size int
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Keyword search over title (boost 2) and content, with content highlights",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.searchClient(cmd.Context())
			if err != nil {
				return err
			}
			result, err := client.Search(cmd.Context(), a.cfg.Search.Index, strings.Join(args, " "), size)
			if err != nil {
				return err
			}
			return printResult(cmd, result, out)
		},
	}
	cmd.Flags().IntVarP(&size, "size", "n", query.DefaultSize, "Maximum number of hits")
	cmd.Flags().BoolVar(&out.highlight, "highlight", false, "Print highlighted content fragments")
	out.bind(cmd)
	return cmd
}

func newMLTCmd(a *app) *cobra.Command {
	var size int
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "mlt <document-id>",
		Short: "Find documents similar to an indexed document (more_like_this)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.searchClient(cmd.Context())
			if err != nil {
				return err
			}
			result, err := client.MoreLikeThis(cmd.Context(), a.cfg.Search.Index, args[0], size)
			if err != nil {
				return err
			}
			return printResult(cmd, result, out)
		},
	}
	cmd.Flags().IntVarP(&size, "size", "n", query.DefaultSize, "Maximum number of hits")
	out.bind(cmd)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the first 50 documents of the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.searchClient(cmd.Context())
			if err != nil {
				return err
			}
			result, err := client.ListAll(cmd.Context(), a.cfg.Search.Index)
			if err != nil {
				return err
			}
			return printResult(cmd, result, out)
		},
	}
	out.bind(cmd)
	return cmd
}

func newSemanticCmd(a *app) *cobra.Command {
	var k int
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "semantic <text>",
		Short: "kNN search over content embeddings (requires embedder.enabled)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.searchClient(cmd.Context())
			if err != nil {
				return err
			}
			result, err := client.SemanticSearch(cmd.Context(), a.cfg.Search.Index, strings.Join(args, " "), k)
			if err != nil {
				return err
			}
			return printResult(cmd, result, out)
		},
	}
	cmd.Flags().IntVar(&k, "k", query.DefaultK, "Number of nearest neighbours")
	out.bind(cmd)
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var search bool
	cmd := &cobra.Command{
		Use:   "analyze <text>",
		Short: "Show how the index analyzer (or --search analyzer) tokenizes text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.searchClient(cmd.Context())
			if err != nil {
				return err
			}
			analyzer := schema.IndexAnalyzer
			if search {
				analyzer = schema.SearchAnalyzer
			}
			tokens, err := client.Analyze(cmd.Context(), a.cfg.Search.Index, strings.Join(args, " "), analyzer)
			if err != nil {
				return err
			}
			printTokens(cmd, tokens)
			return nil
		},
	}
	cmd.Flags().BoolVar(&search, "search", false, "Use the search analyzer instead of the index analyzer")
	return cmd
}

func printResult(cmd *cobra.Command, result *model.SearchResult, out outputOptions) error {
	if out.raw {
		return printRaw(cmd, result.Raw)
	}
	for _, h := range result.Hits {
		printf(cmd, "{title: %s, id: %s, score: %g}\n", h.Title, h.ID, h.Score)
		if out.highlight {
			for _, fragment := range h.Highlight[schema.FieldContent] {
				printf(cmd, "    ...%s...\n", fragment)
			}
		}
	}
	if result.Relation == "gte" {
		printf(cmd, "total: %d+\n", result.Total)
	} else {
		printf(cmd, "total: %d\n", result.Total)
	}
	return nil
}

func printTokens(cmd *cobra.Command, tokens []model.Token) {
	for _, t := range tokens {
		printf(cmd, "%d\t%s\t[%d:%d]\t%s\n", t.Position, t.Token, t.StartOffset, t.EndOffset, t.Type)
	}
}

func printRaw(cmd *cobra.Command, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
