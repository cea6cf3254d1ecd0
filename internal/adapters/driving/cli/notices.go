package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

var (
	recentLimit   int
	recentJSON    bool
	recentFilters filterFlags
	showVersions  bool
)

var noticesCmd = &cobra.Command{
	Use:   "notices",
	Short: "Browse stored notices",
}

var noticesRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently published notices",
	Args:  cobra.NoArgs,
	RunE:  runNoticesRecent,
}

var noticesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a notice",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoticesShow,
}

var noticesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a notice and all its versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoticesDelete,
}

func init() {
	noticesRecentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "maximum number of notices")
	noticesRecentCmd.Flags().BoolVar(&recentJSON, "json", false, "output notices as JSON")
	recentFilters.register(noticesRecentCmd)
	noticesShowCmd.Flags().BoolVar(&showVersions, "versions", false, "list every stored version")

	noticesCmd.AddCommand(noticesRecentCmd)
	noticesCmd.AddCommand(noticesShowCmd)
	noticesCmd.AddCommand(noticesDeleteCmd)
	rootCmd.AddCommand(noticesCmd)
}

func runNoticesRecent(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errNotConfigured)
	}
	filters, err := recentFilters.filters()
	if err != nil {
		return err
	}
	docs, err := documentService.Recent(cmd.Context(), filters, recentLimit)
	if err != nil {
		return err
	}

	if recentJSON {
		type noticeJSON struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Type    string `json:"type"`
			Date    string `json:"date"`
			URL     string `json:"url,omitempty"`
			Version int    `json:"version"`
		}
		out := make([]noticeJSON, len(docs))
		for i, d := range docs {
			out[i] = noticeJSON{d.ID, d.Title, string(d.SourceType), d.PublishedDate(), d.URL, d.Version}
		}
		return printJSON(cmd, out)
	}

	if len(docs) == 0 {
		cmd.Println("No notices found.")
		return nil
	}
	for _, d := range docs {
		cmd.Printf("  %s  %-18s %s\n", d.PublishedDate(), d.SourceType.Description(), d.Title)
		cmd.Printf("              id: %s\n", d.ID)
	}
	return nil
}

func runNoticesShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errNotConfigured)
	}
	doc, err := documentService.Get(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("notice %q not found", args[0])
	}
	if err != nil {
		return err
	}

	cmd.Println(doc.Title)
	cmd.Printf("Type: %s | Published: %s | Version: %d\n",
		doc.SourceType.Description(), doc.PublishedDate(), doc.Version)
	if doc.URL != "" {
		cmd.Printf("URL: %s\n", doc.URL)
	}
	cmd.Println()
	cmd.Println(doc.Body)

	if showVersions {
		versions, err := documentService.Versions(cmd.Context(), doc.ID)
		if err != nil {
			return err
		}
		cmd.Println()
		cmd.Println("Versions:")
		for _, v := range versions {
			cmd.Printf("  v%d  %s  %s\n", v.Version, v.CreatedAt.Format(time.DateTime), v.ContentHash[:min(12, len(v.ContentHash))])
		}
	}
	return nil
}

func runNoticesDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errNotConfigured)
	}
	if err := ensureIndex(cmd.Context()); err != nil {
		return err
	}
	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete %s: %w", args[0], err)
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}
