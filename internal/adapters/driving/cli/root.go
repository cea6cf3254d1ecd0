// Package cli provides the kiitbot command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driving"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services wired by main before Execute.
var (
	chatService     driving.ChatService
	searchService   driving.SearchService
	documentService driving.DocumentService
	indexService    driving.IndexService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
)

// Services holds the driving ports the commands use.
type Services struct {
	Chat      driving.ChatService
	Search    driving.SearchService
	Document  driving.DocumentService
	Index     driving.IndexService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler
}

var errNotConfigured = errors.New("service not configured")

var rootCmd = &cobra.Command{
	Use:   "kiitbot",
	Short: "Answer questions about KIIT notices and courses",
	Long: `kiitbot indexes KIIT notices, academic calendars and course records and
answers questions about them with numbered citations.

Run 'kiitbot serve' to start the HTTP API, or use 'ask' and 'search'
directly from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices installs the services used by the commands.
func SetServices(s Services) {
	chatService = s.Chat
	searchService = s.Search
	documentService = s.Document
	indexService = s.Index
	settingsService = s.Settings
	scheduler = s.Scheduler
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// IsVerbose reports whether --verbose appears in args. main uses it to
// enable debug logging while wiring, before flags are parsed.
func IsVerbose(args []string) bool {
	for _, a := range args {
		if a == "-v" || a == "--verbose" || a == "--verbose=true" {
			return true
		}
	}
	return false
}

// ensureIndex builds the in-memory index from the document store the
// first time a command needs it.
func ensureIndex(ctx context.Context) error {
	if indexService == nil {
		return fmt.Errorf("index %w", errNotConfigured)
	}
	stats, err := indexService.Stats(ctx)
	if err != nil {
		return fmt.Errorf("reading index stats: %w", err)
	}
	if stats.Initialised {
		return nil
	}
	report, err := indexService.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	logger.Debug("index built: %d documents, generation %d, %s",
		report.Indexed, report.Generation, report.Duration)
	return nil
}
