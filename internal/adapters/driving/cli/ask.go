package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

var (
	askLimit   int
	askJSON    bool
	askFilters filterFlags
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about KIIT notices",
	Long: `Retrieves the most relevant notices and asks the configured language
model to answer from them, citing each notice as [n].

When no notice matches, the answer says so instead of guessing. When the
model is unavailable the relevant notices are listed without an answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 0, "maximum number of notices to consult")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askFilters.register(askCmd)
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return fmt.Errorf("chat %w", errNotConfigured)
	}
	filters, err := askFilters.filters()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := ensureIndex(ctx); err != nil {
		return err
	}

	answer, err := chatService.Ask(ctx, domain.ChatRequest{
		Query:     strings.Join(args, " "),
		SessionID: "cli",
		Filters:   filters,
		Limit:     askLimit,
	})
	if err != nil {
		return err
	}

	if askJSON {
		return printJSON(cmd, answerJSON(answer))
	}
	printAnswer(cmd, answer)
	return nil
}

type sourceJSON struct {
	Marker int    `json:"marker"`
	ID     string `json:"id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	Date   string `json:"date"`
	URL    string `json:"url,omitempty"`
}

func answerJSON(a *domain.Answer) any {
	sources := make([]sourceJSON, len(a.Sources))
	for i, s := range a.Sources {
		sources[i] = sourceJSON{
			Marker: s.Marker,
			ID:     s.DocumentID,
			Title:  s.Title,
			Type:   string(s.SourceType),
			Date:   formatDate(s),
			URL:    s.URL,
		}
	}
	return struct {
		Answer       string       `json:"answer"`
		Sources      []sourceJSON `json:"sources"`
		ElapsedMS    int64        `json:"elapsed_ms"`
		FromCache    bool         `json:"from_cache"`
		Degraded     bool         `json:"degraded,omitempty"`
		Insufficient bool         `json:"insufficient,omitempty"`
		Model        string       `json:"model,omitempty"`
	}{
		Answer:       a.Text,
		Sources:      sources,
		ElapsedMS:    a.Elapsed.Milliseconds(),
		FromCache:    a.FromCache,
		Degraded:     a.Degraded,
		Insufficient: a.Insufficient,
		Model:        a.Model,
	}
}

func printAnswer(cmd *cobra.Command, a *domain.Answer) {
	cmd.Println(a.Text)
	if len(a.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, s := range a.Sources {
			cmd.Printf("  [%d] %s (%s, %s)\n", s.Marker, s.Title, s.SourceType, formatDate(s))
			if s.URL != "" {
				cmd.Printf("      %s\n", s.URL)
			}
		}
	}

	var notes []string
	if a.FromCache {
		notes = append(notes, "cached")
	}
	if a.Degraded {
		notes = append(notes, "model unavailable")
	}
	if a.CitationsInferred {
		notes = append(notes, "citations inferred")
	}
	notes = append(notes, a.Elapsed.Round(time.Millisecond).String())
	cmd.Println()
	cmd.Printf("(%s)\n", strings.Join(notes, ", "))
}

func formatDate(s domain.Source) string {
	if s.PublishedAt.IsZero() {
		return "unknown"
	}
	return s.PublishedAt.Format(time.DateOnly)
}
