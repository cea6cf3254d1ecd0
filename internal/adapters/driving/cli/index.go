package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the search index",
	Long: `Rebuild the index from the document store, re-index or drop single
documents, and inspect the current snapshot.`,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the document store",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

var indexUpsertCmd = &cobra.Command{
	Use:   "upsert [id]",
	Short: "Re-index a stored document",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexUpsert,
}

var indexRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Drop a document from the index",
	Long: `Drops a document from the index without deleting it from the store.
Use 'notices delete' to remove it permanently.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexRemove,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runIndexStats,
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexUpsertCmd)
	indexCmd.AddCommand(indexRemoveCmd)
	indexCmd.AddCommand(indexStatsCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return fmt.Errorf("index %w", errNotConfigured)
	}
	report, err := indexService.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	printReport(cmd, "Rebuilt", report)
	return nil
}

func runIndexUpsert(cmd *cobra.Command, args []string) error {
	if err := ensureIndex(cmd.Context()); err != nil {
		return err
	}
	report, err := indexService.UpsertByID(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("upsert %s: %w", args[0], err)
	}
	printReport(cmd, "Upserted", report)
	return nil
}

func runIndexRemove(cmd *cobra.Command, args []string) error {
	if err := ensureIndex(cmd.Context()); err != nil {
		return err
	}
	report, err := indexService.Remove(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("remove %s: %w", args[0], err)
	}
	printReport(cmd, "Removed", report)
	return nil
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if err := ensureIndex(cmd.Context()); err != nil {
		return err
	}
	stats, err := indexService.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Println("Index")
	cmd.Println("=====")
	cmd.Printf("  Generation: %d\n", stats.Generation)
	cmd.Printf("  Documents:  %d\n", stats.Documents)
	cmd.Printf("  Terms:      %d\n", stats.Terms)
	if stats.Vectors > 0 {
		cmd.Printf("  Vectors:    %d (%d dims, %s)\n", stats.Vectors, stats.Dimensions, stats.EmbedModel)
	} else {
		cmd.Println("  Vectors:    none (lexical only)")
	}
	if !stats.BuiltAt.IsZero() {
		cmd.Printf("  Built:      %s\n", stats.BuiltAt.Format(time.DateTime))
	}

	if len(stats.ByType) > 0 {
		cmd.Println()
		cmd.Println("By type:")
		types := make([]domain.SourceType, 0, len(stats.ByType))
		for t := range stats.ByType {
			types = append(types, t)
		}
		slices.Sort(types)
		for _, t := range types {
			cmd.Printf("  %-20s %d\n", t.Description(), stats.ByType[t])
		}
	}

	if chatService != nil {
		cs := chatService.Stats()
		cmd.Println()
		cmd.Printf("Chat: %d queries, %d cache hits, %d degraded, %d insufficient\n",
			cs.Queries, cs.CacheHits, cs.Degraded, cs.Insufficient)
	}
	return nil
}

func printReport(cmd *cobra.Command, verb string, r domain.IndexReport) {
	cmd.Printf("%s index generation %d: %d indexed, %d skipped, %d failed",
		verb, r.Generation, r.Indexed, r.Skipped, r.Failed)
	if r.LexicalOnly > 0 {
		cmd.Printf(", %d without embeddings", r.LexicalOnly)
	}
	cmd.Printf(" (%s)\n", r.Duration.Round(time.Millisecond))
}
