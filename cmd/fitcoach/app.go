package main

import (
	"context"
	"fmt"
	"os"

	"fitcoach/internal/agents"
	"fitcoach/internal/config"
	"fitcoach/internal/domain"
	"fitcoach/internal/llm"
	"fitcoach/internal/logging"
	"fitcoach/internal/pipeline"
	"fitcoach/internal/store"
)

// app bundles everything a command needs: config, store, registry, and
// the wired pipeline machine.
type app struct {
	cfg        *config.Config
	store      *store.LocalStore
	registry   *domain.Registry
	watcher    *domain.Watcher
	dispatcher *pipeline.Dispatcher
	machine    *pipeline.Machine
}

// newApp wires the full pipeline from the workspace config.
func newApp(ctx context.Context) (*app, error) {
	ws := workspace
	if ws == "" {
		var err error
		ws, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine workspace: %w", err)
		}
	}

	if err := logging.Initialize(ws); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.Load(ws)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}

	registry := domain.NewRegistry(cfg.Domains.BaseDomain)
	if _, err := os.Stat(cfg.Domains.Dir); err == nil {
		if err := domain.LoadDir(registry, cfg.Domains.Dir); err != nil {
			return nil, err
		}
	} else {
		logging.Boot("no domains dir at %s; run 'fitcoach init' to create starter domains", cfg.Domains.Dir)
	}

	var watcher *domain.Watcher
	if cfg.Domains.HotReload {
		watcher, err = domain.NewWatcher(registry, cfg.Domains.Dir)
		if err != nil {
			return nil, err
		}
		if err := watcher.Start(); err != nil {
			return nil, err
		}
	}

	db, err := store.NewLocalStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClientFromConfig(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	clarifier := agents.NewClarifier(client)
	clarifier.SetMaxQuestions(cfg.Pipeline.MaxClarifyAsks)

	dispatcher := pipeline.NewDispatcher(agents.NewObserver(client), db)
	machine, err := pipeline.NewMachine(pipeline.Deps{
		Registry:    registry,
		Router:      agents.NewRouter(client),
		Planner:     agents.NewPlanner(client),
		Retriever:   agents.NewRetriever(db),
		Analyzer:    agents.NewAnalyzer(client),
		Clarifier:   clarifier,
		Synthesizer: agents.NewSynthesizer(client),
		Evaluator:   agents.NewEvaluator(client),
		Parser:      agents.NewParser(client),
		Entries:     db,
		Sessions:    db,
		GlobalCtx:   db,
		Dispatcher:  dispatcher,
		Config: pipeline.Config{
			MaxRetries:       cfg.Pipeline.MaxRetries,
			MaxSteps:         cfg.Pipeline.MaxSteps,
			ResponseStyle:    cfg.Pipeline.ResponseStyle,
			RecentEntryCount: cfg.Pipeline.RecentEntryCount,
		},
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		store:      db,
		registry:   registry,
		watcher:    watcher,
		dispatcher: dispatcher,
		machine:    machine,
	}, nil
}

// close drains in-flight observer passes and releases everything.
func (a *app) close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.dispatcher.Wait()
	if err := a.store.Close(); err != nil {
		logging.Get(logging.CategoryBoot).Warn("store close failed: %v", err)
	}
	logging.CloseAll()
}
