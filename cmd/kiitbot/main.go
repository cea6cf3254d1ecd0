// Command kiitbot answers questions about KIIT notices and courses.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/adapters/driven/ai"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/adapters/driven/config/file"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/adapters/driven/storage/memory"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/adapters/driven/storage/mongo"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/adapters/driven/storage/sqlite"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/adapters/driving/cli"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/index"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/services"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/normalisers"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger.SetVerbose(cli.IsVerbose(os.Args))
	ctx := context.Background()

	if err := file.LoadDotEnv(); err != nil {
		logger.Warn("loading .env: %v", err)
	}

	var configStore driven.ConfigStore
	configDir, err := file.DefaultDir()
	if err == nil {
		configStore, err = file.NewConfigStore(configDir)
	}
	if err != nil {
		logger.Warn("config directory unavailable, settings will not persist: %v", err)
		configStore = memory.NewConfigStore()
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	store, closeStore, err := openStore(ctx, settings.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	aiServices := ai.Initialise(settings)
	defer aiServices.Close()

	holder := index.NewHolder()
	indexer := services.NewIndexService(holder, store, aiServices.EmbeddingService, settings)
	search := services.NewSearchService(holder, aiServices.EmbeddingService, settings)

	generator := services.NewAnswerGenerator(aiServices.LLMService, settings.LLM)
	if configDir == "" {
		logger.Debug("prompt overrides disabled: no config directory")
	} else if prompts, err := file.NewPromptStore(configDir); err != nil {
		logger.Warn("prompt overrides disabled: %v", err)
	} else {
		generator.SetPromptStore(prompts)
	}

	var cache driven.Cache
	if settings.Cache.Enabled {
		cache = memory.NewCache(settings.Cache.Capacity)
	}
	chat := services.NewChatService(search, services.NewContextAssembler(settings.Context), generator, cache, settings)
	indexer.OnPublish(chat.OnIndexPublished)

	documents := services.NewDocumentService(store, indexer, normalisers.Default())

	scheduler := services.NewScheduler(indexer, settings.Indexer.RebuildInterval)
	scheduler.OnReport(func(r domain.IndexReport, err error) {
		if err != nil {
			logger.Error("scheduled rebuild failed: %v", err)
			return
		}
		logger.Info("scheduled rebuild: generation %d, %d indexed in %s",
			r.Generation, r.Indexed, r.Duration.Round(time.Millisecond))
	})

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Chat:      chat,
		Search:    search,
		Document:  documents,
		Index:     indexer,
		Settings:  settingsService,
		Scheduler: scheduler,
	})
	return cli.Execute(ctx)
}

// openStore opens the configured document store and returns a func that
// releases it.
func openStore(ctx context.Context, cfg domain.StorageSettings) (driven.DocumentStore, func(), error) {
	switch cfg.Driver {
	case domain.StorageMemory:
		logger.Debug("storage: in-memory document store")
		return memory.NewDocumentStore(), func() {}, nil
	case domain.StorageMongo:
		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("storage: mongo database %s", cfg.MongoDatabase)
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.Warn("closing mongo: %v", err)
			}
		}, nil
	default:
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.Debug("storage: sqlite at %s", store.Path())
		return store.DocumentStore(), func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing sqlite: %v", err)
			}
		}, nil
	}
}
