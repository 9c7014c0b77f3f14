package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/agents"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/notify"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/store"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/supplier"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/workflow"
	"github.com/ChetanaCoder/bom-comparison-clientversion/pkg/claude"
)

// workflowEnv holds the initialized store, broker, and pipeline shared by the
// run and serve commands.
type workflowEnv struct {
	Store    store.Store
	Broker   *notify.Broker
	Pipeline *workflow.Pipeline
}

// Close releases resources held by the environment.
func (we *workflowEnv) Close() {
	if we.Store != nil {
		_ = we.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "bom.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: int32(cfg.Store.MaxConns),
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initWorkflow sets up the store, collaborators, and pipeline. Without an API
// key the model-backed collaborators are replaced with deterministic stubs.
// Callers should defer env.Close().
func initWorkflow(ctx context.Context, mode string) (*workflowEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	registry, err := agents.LoadRegistry()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	var translator workflow.Translator
	var extractor workflow.Extractor
	if cfg.Claude.Key == "" {
		zap.L().Warn("BOM_CLAUDE_KEY not set, using offline stub collaborators")
		translator = &agents.StubTranslator{}
		extractor = &agents.StubExtractor{}
	} else {
		client := claude.NewClient(cfg.Claude.Key,
			claude.WithRateLimit(cfg.Claude.RateLimit),
			claude.WithTimeout(time.Duration(cfg.Claude.TimeoutSecs)*time.Second),
		)
		translator = agents.NewTranslator(client, cfg.Claude.Model)
		extractor = agents.NewExtractor(client, cfg.Claude.Model, registry)
	}

	fetcher := supplier.NewFetcher(supplier.FetchOptions{
		Timeout: time.Duration(cfg.Supplier.FTPTimeoutSecs) * time.Second,
		User:    cfg.Supplier.FTPUser,
		Pass:    cfg.Supplier.FTPPass,
	})
	ingester := supplier.NewIngester(fetcher)

	broker := notify.NewBroker()

	focus := cfg.Workflow.FocusCategories
	if len(focus) == 0 {
		focus = registry.FocusCategories()
	}

	p := workflow.New(workflow.Options{
		BaseThreshold:      cfg.Workflow.BaseThreshold,
		SourceLanguage:     cfg.Workflow.SourceLanguage,
		TargetLanguage:     cfg.Workflow.TargetLanguage,
		FocusCategories:    focus,
		MaxParallelMatches: cfg.Workflow.MaxParallelMatches,
	}, st, translator, extractor, ingester, broker)

	return &workflowEnv{
		Store:    st,
		Broker:   broker,
		Pipeline: p,
	}, nil
}
