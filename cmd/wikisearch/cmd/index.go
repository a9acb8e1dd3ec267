package cmd

import (
	"github.com/LouYuanbo1/wikisearch/internal/domain/model"
	"github.com/LouYuanbo1/wikisearch/internal/service/indexer"
	"github.com/spf13/cobra"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the search index",
	}
	cmd.AddCommand(newIndexCreateCmd(a))
	cmd.AddCommand(newIndexDeleteCmd(a))
	cmd.AddCommand(newIndexStatsCmd(a))
	return cmd
}

func newIndexCreateCmd(a *app) *cobra.Command {
	var recreate bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the index with the Japanese (kuromoji) analysis settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.indexer(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.EnsureIndex(cmd.Context(), recreate); err != nil {
				return err
			}
			printf(cmd, "index %s ready\n", svc.Index())
			return nil
		},
	}
	cmd.Flags().BoolVar(&recreate, "recreate", false, "Delete the index first if it exists")
	return cmd
}

func newIndexDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.searchClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.DeleteIndex(cmd.Context(), a.cfg.Search.Index); err != nil {
				return err
			}
			printf(cmd, "index %s deleted\n", a.cfg.Search.Index)
			return nil
		},
	}
}

func newIndexStatsCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show document count and store size of the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.searchClient(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := client.IndexStats(cmd.Context(), a.cfg.Search.Index)
			if err != nil {
				return err
			}
			if raw {
				return printRaw(cmd, stats.Raw)
			}
			printf(cmd, "index: %s\ndocs: %d\nstore: %d bytes\n", a.cfg.Search.Index, stats.DocCount, stats.StoreSizeBytes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the engine response as is")
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	var file string
	var opts indexer.LoadOptions
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk load the articles CSV into the index (ids 1..N in file order)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				file = a.cfg.Wikipedia.ArticlesFile
			}
			if !cmd.Flags().Changed("workers") {
				opts.Workers = a.cfg.Loader.Workers
			}
			svc, err := a.indexer(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Load(cmd.Context(), file, opts)
			if result != nil {
				printBulkResult(cmd, result)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Articles CSV (default wikipedia.articles_file)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 1, "Concurrent bulk requests (default loader.workers)")
	cmd.Flags().BoolVar(&opts.Recreate, "recreate", false, "Delete and recreate the index before loading")
	return cmd
}

func printBulkResult(cmd *cobra.Command, r *model.BulkResult) {
	printf(cmd, "batches: %d\nsent: %d\nindexed: %d\nfailed: %d\n", r.Batches, r.Sent, r.Indexed, len(r.Failed))
	for _, f := range r.Failed {
		printf(cmd, "  id=%s status=%d %s: %s\n", f.ID, f.Status, f.Type, f.Reason)
	}
}

func newAddCmd(a *app) *cobra.Command {
	var id, title, content string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Index a single document and refresh so it is searchable immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.searchClient(cmd.Context())
			if err != nil {
				return err
			}
			docID, err := client.AddOne(cmd.Context(), a.cfg.Search.Index, model.Document{ID: id, Title: title, Content: content})
			if err != nil {
				return err
			}
			printf(cmd, "indexed %s\n", docID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Document id (generated by the engine when empty)")
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&content, "content", "", "Content")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}
