package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

var (
	searchLimit   int
	searchJSON    bool
	searchFilters filterFlags
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed notices",
	Long: `Ranks notices, calendars and course records for a query.

The configured search mode decides the scoring: lexical matches distinct
keywords, semantic compares embeddings and hybrid combines both. Without
an embedding provider every search is lexical.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results (max 50)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchFilters.register(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return fmt.Errorf("search %w", errNotConfigured)
	}
	filters, err := searchFilters.filters()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := ensureIndex(ctx); err != nil {
		return err
	}

	result, err := searchService.Search(ctx, domain.SearchQuery{
		Text:    args[0],
		Filters: filters,
		Limit:   searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}
	return outputSearchTable(cmd, result)
}

type searchHitJSON struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	Date         string   `json:"date"`
	URL          string   `json:"url,omitempty"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
	Snippet      string   `json:"snippet,omitempty"`
}

func outputSearchJSON(cmd *cobra.Command, result *domain.RetrievalResult) error {
	out := struct {
		Total    int             `json:"total"`
		Mode     string          `json:"mode"`
		Degraded bool            `json:"degraded,omitempty"`
		Results  []searchHitJSON `json:"results"`
	}{
		Total:    result.Total,
		Mode:     string(result.Mode),
		Degraded: result.Degraded,
		Results:  make([]searchHitJSON, len(result.Hits)),
	}
	for i, hit := range result.Hits {
		out.Results[i] = searchHitJSON{
			ID:           hit.Document.ID,
			Title:        hit.Document.Title,
			Type:         string(hit.Document.SourceType),
			Date:         hit.Document.PublishedDate(),
			URL:          hit.Document.URL,
			Score:        hit.Score,
			MatchedTerms: hit.MatchedTerms,
			Snippet:      hit.Snippet,
		}
	}
	return printJSON(cmd, out)
}

func outputSearchTable(cmd *cobra.Command, result *domain.RetrievalResult) error {
	if result.IsEmpty() {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%d of %d, %s search):\n", len(result.Hits), result.Total, result.Mode)
	if result.Degraded {
		cmd.Println("Note: semantic scoring was unavailable; results are keyword matches only.")
	}
	cmd.Println()
	for i, hit := range result.Hits {
		title := hit.Document.Title
		if title == "" {
			title = hit.Document.ID
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, hit.Score)
		cmd.Printf("      %s | %s\n", hit.Document.SourceType.Description(), hit.Document.PublishedDate())
		if len(hit.MatchedTerms) > 0 {
			cmd.Printf("      Matched: %s\n", strings.Join(hit.MatchedTerms, ", "))
		}
		if hit.Snippet != "" {
			cmd.Printf("      %s\n", hit.Snippet)
		}
		cmd.Println()
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
