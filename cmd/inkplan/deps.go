package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"inkplan/internal/callrecord"
	"inkplan/internal/chunkpool"
	"inkplan/internal/config"
	"inkplan/internal/home"
	"inkplan/internal/plancache"
	"inkplan/internal/planner"
	"inkplan/internal/providers"
	"inkplan/internal/segment"
	"inkplan/internal/store"
	"inkplan/internal/suggest"
)

// deps bundles the wired components a command needs.
type deps struct {
	home    *home.Dir
	manager *config.Manager
	kv      store.KV
	service suggest.Service
	logger  *slog.Logger
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// setup wires home, config, store, and the suggestion service.
func setup() (*deps, error) {
	logger := newLogger()

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	file := cfgFile
	if file == "" && h.ConfigExists() {
		file = h.ConfigPath()
	}
	manager, err := config.NewManager(file)
	if err != nil {
		return nil, err
	}
	manager.OnChange(func(cfg *config.Config) {
		logger.Info("configuration reloaded", "providers", len(cfg.EnabledProviders()))
	})
	manager.WatchConfig()
	cfg := manager.Get()

	kv, err := openStore(cfg, h)
	if err != nil {
		return nil, err
	}

	service, err := newService(cfg, kv, logger)
	if err != nil {
		kv.Close()
		return nil, err
	}

	return &deps{
		home:    h,
		manager: manager,
		kv:      kv,
		service: service,
		logger:  logger,
	}, nil
}

func (d *deps) close() {
	if err := d.kv.Close(); err != nil {
		d.logger.Warn("failed to close store", "error", err)
	}
}

func openStore(cfg *config.Config, h *home.Dir) (store.KV, error) {
	path := cfg.Store.Path
	switch cfg.Store.Backend {
	case "", "sqlite":
		if path == "" {
			path = h.StorePath()
		}
		return store.OpenSQLite(path)
	case "file":
		if path == "" {
			path = h.KVDir()
		}
		return store.OpenFileStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newService(cfg *config.Config, kv store.KV, logger *slog.Logger) (suggest.Service, error) {
	name, provider, ok := cfg.DefaultProvider()
	if !ok {
		return nil, fmt.Errorf("no enabled LLM provider configured")
	}

	apiKey := config.ResolveEnvVars(provider.APIKey)
	var client providers.LLMClient
	switch provider.Type {
	case "openrouter":
		client = providers.NewOpenRouterClient(providers.OpenRouterConfig{
			APIKey:       apiKey,
			DefaultModel: provider.Model,
		})
	case "openai":
		client = providers.NewOpenAIClient(providers.OpenAIConfig{
			APIKey:       apiKey,
			DefaultModel: provider.Model,
		})
	default:
		return nil, fmt.Errorf("provider %q has unknown type %q", name, provider.Type)
	}

	return suggest.NewLLMService(suggest.LLMServiceConfig{
		Client:      client,
		Model:       provider.Model,
		Temperature: provider.Temperature,
		MaxTokens:   provider.MaxTokens,
		Recorder:    callrecord.NewRecorder(kv, logger),
		Logger:      logger,
	})
}

func newPlanner(d *deps) (*planner.Planner, error) {
	cfg := d.manager.Get()

	cache, err := plancache.New(d.kv, plancache.Config{
		PollInterval: time.Duration(cfg.Cache.PollIntervalMillis) * time.Millisecond,
		WaitTimeout:  time.Duration(cfg.Cache.WaitTimeoutSeconds) * time.Second,
		Logger:       d.logger,
	})
	if err != nil {
		return nil, err
	}

	return planner.New(d.service, cache, planner.Config{
		Window: segment.WindowConfig{
			MinPanelsForSegmentation: cfg.Planner.MinPanelsForSegmentation,
			WindowSize:               cfg.Planner.WindowSize,
			Overlap:                  cfg.Planner.WindowOverlap,
		},
		Episode: planner.EpisodeConfig{
			SmallUnitThreshold: cfg.Planner.SmallUnitThreshold,
			MinUnitsPerEpisode: cfg.Planner.MinUnitsPerEpisode,
			MaxUnitsPerEpisode: cfg.Planner.MaxUnitsPerEpisode,
			BundlingEnabled:    cfg.Planner.EpisodeBundling,
		},
		Page: planner.PageConfig{
			MaxPanelsPerPage:   cfg.Planner.MaxPanelsPerPage,
			MinPagesPerEpisode: cfg.Planner.MinPagesPerEpisode,
			BundlingEnabled:    cfg.Planner.PageBundling,
		},
		Logger: d.logger,
	})
}

func newPool(d *deps) (*chunkpool.Pool, error) {
	cfg := d.manager.Get()
	return chunkpool.New(d.service, d.kv, chunkpool.Config{
		MaxConcurrency: cfg.Pool.MaxConcurrency,
		JudgeEnabled:   cfg.Pool.JudgeEnabled,
		Logger:         d.logger,
	})
}
