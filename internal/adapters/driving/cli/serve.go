package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/adapters/driving/httpapi"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/connectors/filesystem"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/connectors/kafka"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

var (
	serveAddr      string
	serveImportDir string
	serveNoKafka   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the chat, search and admin HTTP API.

Alongside the API this starts the periodic index rebuild, watches the
import folder for new JSONL, JSON or YAML files when one is configured,
and consumes document changes from Kafka when brokers are configured.

Endpoints:
  POST /api/chat                 answer a question with citations
  GET  /api/search?q=...         ranked notices
  GET  /api/notices/recent       newest notices
  GET  /api/notices/{id}         a single notice
  /api/admin/...                 index and cache maintenance (X-API-Key)
  GET  /healthz                  readiness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides settings)")
	serveCmd.Flags().StringVar(&serveImportDir, "import-dir", "", "folder to watch for import files (overrides settings)")
	serveCmd.Flags().BoolVar(&serveNoKafka, "no-kafka", false, "do not start the Kafka consumer")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings %w", errNotConfigured)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	server := settings.Server
	if serveAddr != "" {
		server.Addr = serveAddr
	}
	if serveImportDir != "" {
		server.ImportDir = serveImportDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ensureIndex(ctx); err != nil {
		return err
	}

	api, err := httpapi.NewServer(&httpapi.Ports{
		Chat:     chatService,
		Search:   searchService,
		Document: documentService,
		Index:    indexService,
	}, server)
	if err != nil {
		return err
	}

	g := newTaskGroup(ctx)
	g.Go("api", api.Run)

	if scheduler != nil {
		g.Go("scheduler", scheduler.Start)
	}

	if server.ImportDir != "" {
		watcher := filesystem.NewWatcher(server.ImportDir, func(ctx context.Context, path string) error {
			summary, err := ingestFile(ctx, path)
			if err == nil {
				logger.Info("imported %s: %s", path, summary)
			}
			return err
		})
		g.Go("watcher", func(ctx context.Context) error {
			if n, err := watcher.Scan(ctx); err != nil {
				return err
			} else if n > 0 {
				logger.Info("imported %d existing files from %s", n, watcher.Dir())
			}
			return watcher.Watch(ctx)
		})
	}

	if settings.Kafka.Enabled() && !serveNoKafka {
		consumer := kafka.NewConsumer(
			kafka.NewReader(settings.Kafka),
			kafka.NewDeadLetterWriter(settings.Kafka),
			documentService,
		)
		defer func() {
			if err := consumer.Close(); err != nil {
				logger.Warn("kafka: close: %v", err)
			}
		}()
		g.Go("kafka", consumer.Run)
	}

	cmd.Printf("kiitbot %s serving on %s\n", version, server.Addr)
	err = g.Wait()
	if scheduler != nil {
		if stopErr := scheduler.Stop(); stopErr != nil {
			logger.Warn("scheduler: stop: %v", stopErr)
		}
	}
	return err
}

// taskGroup runs long-lived tasks until one fails or the parent context
// ends. The first failure cancels the others. A task returning
// context.Canceled after cancellation has stopped cleanly.
type taskGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	once sync.Once
	err  error
}

func newTaskGroup(parent context.Context) *taskGroup {
	ctx, cancel := context.WithCancel(parent)
	return &taskGroup{ctx: ctx, cancel: cancel}
}

// Go starts a named task.
func (g *taskGroup) Go(name string, fn func(context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		err := fn(g.ctx)
		if err != nil && !(errors.Is(err, context.Canceled) && g.ctx.Err() != nil) {
			g.once.Do(func() {
				g.err = fmt.Errorf("%s: %w", name, err)
				g.cancel()
			})
			return
		}
		logger.Debug("%s stopped", name)
	}()
}

// Wait blocks until every task returns and reports the first failure.
func (g *taskGroup) Wait() error {
	g.wg.Wait()
	g.cancel()
	return g.err
}
