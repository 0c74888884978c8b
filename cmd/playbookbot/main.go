// Command playbookbot indexes ClickUp playbooks and serves semantic search
// over them from the command line and as an MCP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/playbookbot/internal/adapters/driven/ai"
	"github.com/custodia-labs/playbookbot/internal/adapters/driven/config/file"
	"github.com/custodia-labs/playbookbot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/playbookbot/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/playbookbot/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/playbookbot/internal/adapters/driving/cli"
	"github.com/custodia-labs/playbookbot/internal/cache"
	"github.com/custodia-labs/playbookbot/internal/connectors/clickup"
	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/core/services"
	"github.com/custodia-labs/playbookbot/internal/logger"
	"github.com/custodia-labs/playbookbot/internal/ratelimit"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load() // a missing .env is fine

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, version, bootstrap); err != nil {
		os.Exit(1)
	}
}

// bootstrap wires the application from the settings found in the config directory.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	configDir, err := resolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, nil, err
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.Probe{})

	if opts.SettingsOnly {
		return &cli.Services{Settings: settingsService}, nil, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		return nil, nil, err
	}
	applyLogLevel(settings.LogLevel, opts.Verbose)

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Shutdown: %v", err)
			}
		}
	}

	limiter := ratelimit.New(ratelimit.Config{
		Rules:         settings.RateLimits,
		SweepInterval: settings.Cache.SweepInterval,
	})
	closers = append(closers, limiter.Close)

	store, err := openStore(ctx, settings.Store, configDir)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, store.Close)

	aiResult := ai.Init(ctx, *settings, limiter)
	closers = append(closers, func() error { aiResult.Close(); return nil })

	var embedder driven.EmbeddingService
	if aiResult.EmbeddingService != nil {
		embeddings := cache.NewEmbeddingCache(cache.Options{
			TTL:           settings.Cache.EmbeddingTTL,
			MaxEntries:    settings.Cache.MaxEntries,
			SweepInterval: settings.Cache.SweepInterval,
		})
		closers = append(closers, embeddings.Close)
		embedder = cache.NewCachedEmbeddingService(aiResult.EmbeddingService, embeddings)
	}

	var reasoner driven.Reasoner
	if aiResult.LLMService != nil {
		prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open prompts: %w", err)
		}
		reasoner = services.NewLLMReasoner(aiResult.LLMService, prompts)
	}

	searchCfg := services.SearchConfig{
		CacheTTL:        settings.Cache.SearchTTL,
		CacheMaxEntries: settings.Cache.MaxEntries,
		SweepInterval:   settings.Cache.SweepInterval,
	}
	searchService := services.NewSearchService(store, embedder, reasoner, searchCfg)
	recommendService := services.NewRecommendationService(store, embedder, reasoner, searchCfg)
	closers = append(closers, searchService.Close, recommendService.Close)

	svc := &cli.Services{
		Search:    searchService,
		Recommend: recommendService,
		Settings:  settingsService,
		Limiter:   limiter,
		Defaults:  settings.Search,
		Scope:     settings.Source.Scope,
	}

	if settings.Source.IsConfigured() {
		connector, err := clickup.New(clickup.Config{
			APIToken:          settings.Source.APIToken,
			AccessToken:       settings.Source.AccessToken,
			BaseURL:           settings.Source.BaseURL,
			DiscoveryKeywords: settings.Source.DiscoveryKeywords,
			Quota:             limiter,
		})
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("create clickup connector: %w", err)
		}

		syncer := services.NewSynchronizer(connector, store, embedder, reasoner, services.SyncConfig{
			Workers:      settings.Sync.Workers,
			DefaultLimit: settings.Source.Limit,
		})
		syncer.OnSynced(searchService.Invalidate)
		syncer.OnSynced(recommendService.Invalidate)
		svc.Sync = syncer
	} else {
		logger.Warn("ClickUp token not configured: sync is disabled (set %s)", services.EnvClickUpToken)
	}

	return svc, closeAll, nil
}

func openStore(ctx context.Context, cfg domain.StoreSettings, configDir string) (driven.PlaybookStore, error) {
	switch cfg.Driver {
	case domain.StoreDriverMemory:
		logger.Warn("Using the in-memory store: playbooks are lost on exit")
		return memory.NewPlaybookStore(), nil
	case domain.StoreDriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL, cfg.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case domain.StoreDriverSQLite, "":
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = filepath.Join(configDir, "data")
		}
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidInput, cfg.Driver)
	}
}

func resolveConfigDir(dir string) (string, error) {
	if dir == "" {
		dir = os.Getenv("PLAYBOOKBOT_CONFIG_DIR")
	}
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("cannot locate home directory; pass --config-dir")
	}
	return filepath.Join(home, ".playbookbot"), nil
}

func applyLogLevel(level string, verbose bool) {
	if verbose {
		logger.SetLevel(logger.LevelDebug)
		return
	}
	l, err := logger.ParseLevel(level)
	if err != nil {
		logger.Warn("Ignoring log_level: %v", err)
		return
	}
	logger.SetLevel(l)
}
