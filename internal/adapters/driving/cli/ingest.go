package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/importer"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Import notices from JSONL, JSON or YAML files",
	Long: `Stores every record in the given files and updates the index.

Records look like:
  {"id": "...", "title": "...", "content": "...", "notice_type": "exam",
   "date": "2025-10-15", "url": "https://kiit.ac.in/..."}

A record whose content is unchanged is skipped; a changed record is stored
as a new version. Records without an id get one derived from their url.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// ingestSummary counts the outcomes of one import.
type ingestSummary struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
	Invalid   int
}

func (s *ingestSummary) add(other ingestSummary) {
	s.Created += other.Created
	s.Updated += other.Updated
	s.Unchanged += other.Unchanged
	s.Failed += other.Failed
	s.Invalid += other.Invalid
}

func (s ingestSummary) String() string {
	return fmt.Sprintf("%d created, %d updated, %d unchanged, %d failed, %d invalid",
		s.Created, s.Updated, s.Unchanged, s.Failed, s.Invalid)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errNotConfigured)
	}
	ctx := cmd.Context()
	if err := ensureIndex(ctx); err != nil {
		return err
	}

	var total ingestSummary
	for _, path := range args {
		summary, err := ingestFile(ctx, path)
		if err != nil {
			return err
		}
		cmd.Printf("%s: %s\n", filepath.Base(path), summary)
		total.add(summary)
	}
	if len(args) > 1 {
		cmd.Printf("Total: %s\n", total)
	}
	return nil
}

// ingestFile imports one file. Invalid records are logged and counted;
// only an unreadable file or a store failure is an error.
func ingestFile(ctx context.Context, path string) (ingestSummary, error) {
	var summary ingestSummary

	result, err := importer.ReadFile(path)
	if err != nil {
		return summary, err
	}
	for _, recErr := range result.Errors {
		logger.Warn("%s: %v", filepath.Base(path), recErr)
	}
	summary.Invalid = len(result.Errors)
	if len(result.Documents) == 0 {
		return summary, nil
	}

	results, err := documentService.Ingest(ctx, result.Documents)
	if err != nil {
		return summary, fmt.Errorf("ingesting %s: %w", filepath.Base(path), err)
	}
	for _, r := range results {
		switch r.Status {
		case domain.IngestCreated:
			summary.Created++
		case domain.IngestUpdated:
			summary.Updated++
		case domain.IngestUnchanged:
			summary.Unchanged++
		default:
			summary.Failed++
			logger.Warn("%s: %s: %v", filepath.Base(path), r.ID, r.Err)
		}
	}
	return summary, nil
}
