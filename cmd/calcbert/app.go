package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/config"
	"github.com/Veraticus/calcbert/internal/engine"
	"github.com/Veraticus/calcbert/internal/heavy"
	"github.com/Veraticus/calcbert/internal/pattern"
	"github.com/Veraticus/calcbert/internal/retrain"
	"github.com/Veraticus/calcbert/internal/serving"
	"github.com/Veraticus/calcbert/internal/storage"
)

// app holds every wired component for one command invocation.
type app struct {
	cfg        *config.Config
	store      *storage.SQLiteStorage
	rules      *pattern.Engine
	models     *serving.Adapter
	classifier *engine.Classifier
	retrainer  *retrain.Orchestrator
}

// openStorage opens and migrates the feedback database, seeding the default
// rules on first use.
func openStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	seeded, err := store.SeedPatternRules(ctx, pattern.DefaultRules())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed pattern rules: %w", err)
	}
	if seeded > 0 {
		slog.Info("Seeded default pattern rules", "count", seeded)
	}
	return store, nil
}

// newApp wires storage, predictors and the retrain orchestrator.
func newApp(ctx context.Context, opts ...retrain.Option) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rules, err := pattern.NewEngine(nil)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := rules.Reload(ctx, store); err != nil {
		_ = store.Close()
		return nil, err
	}

	models := serving.NewAdapter(cfg.Models.TFIDFDir)
	if !models.Reload() {
		slog.Warn("No TF-IDF model loaded; run `calcbert retrain` to build one", "dir", cfg.Models.TFIDFDir)
	}

	engineOpts := []engine.Option{
		engine.WithRuleUsage(store),
		engine.WithWeights(cfg.Weights),
	}
	heavyClient, err := heavy.NewClient(heavy.Config{
		Endpoint: cfg.Models.HeavyEndpoint,
		ModelDir: cfg.Models.HeavyDir,
		Timeout:  cfg.Models.HeavyTimeout,
		Retry:    common.RetryOptions{MaxAttempts: 2},
	})
	switch {
	case err != nil:
		slog.Warn("Heavy classifier disabled", "error", err)
	case heavyClient != nil:
		engineOpts = append(engineOpts, engine.WithHeavy(heavyClient))
		slog.Info("Heavy classifier enabled", "endpoint", cfg.Models.HeavyEndpoint)
	}

	opts = append([]retrain.Option{retrain.WithSync(cfg.Retrain.Sync)}, opts...)

	return &app{
		cfg:        cfg,
		store:      store,
		rules:      rules,
		models:     models,
		classifier: engine.New(rules, models, engineOpts...),
		retrainer:  retrain.New(cfg.Data.BaseCorpus, store, models, opts...),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// loadStorage opens storage alone for commands that only touch the database.
func loadStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return openStorage(ctx, cfg)
}
