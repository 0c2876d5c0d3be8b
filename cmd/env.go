package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Luc0-0/Samarth/internal/audit"
	"github.com/Luc0-0/Samarth/internal/model"
	"github.com/Luc0-0/Samarth/internal/pipeline"
	"github.com/Luc0-0/Samarth/internal/store"
	"github.com/Luc0-0/Samarth/internal/vocab"
	"github.com/Luc0-0/Samarth/pkg/datagov"
)

// env bundles the shared collaborators a command needs.
type env struct {
	Store    store.Executor
	Vocab    *vocab.Vocabulary
	Catalog  *pipeline.Catalog
	Pipeline *pipeline.Pipeline
	Audit    audit.Sink
}

// initEnv opens the analytic store, loads the vocabulary, and wires the
// pipeline.
func initEnv(ctx context.Context) (*env, error) {
	var (
		st  store.Executor
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		st, err = store.NewSQLite(cfg.Store.Path)
	}
	if err != nil {
		return nil, eris.Wrap(err, "env: open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "env: migrate store")
	}

	v, err := vocab.Load(cfg.Vocab.Path)
	if err != nil {
		st.Close()
		return nil, err
	}

	var sink audit.Sink = audit.NopSink{}
	if cfg.Audit.Enabled {
		sink, err = audit.NewJSONL(cfg.Audit.Path)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	live := datagov.NewClient(cfg.DataGov.APIKey,
		datagov.WithBaseURL(cfg.DataGov.BaseURL),
		datagov.WithRateLimit(cfg.DataGov.RateLimit),
		datagov.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.DataGov.TimeoutSecs) * time.Second}),
	)

	catalog := pipeline.NewCatalog(map[model.Domain]string{
		model.DomainMarket:      cfg.DataGov.MarketResource,
		model.DomainAgriculture: cfg.DataGov.ProductionResource,
	})

	p := pipeline.New(
		pipeline.NewExtractor(v),
		pipeline.NewClassifier(v),
		catalog,
		st,
		live,
		sink,
	)

	return &env{Store: st, Vocab: v, Catalog: catalog, Pipeline: p, Audit: sink}, nil
}

func (e *env) Close() {
	if err := e.Audit.Close(); err != nil {
		zap.L().Warn("env: close audit sink", zap.Error(err))
	}
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("env: close store", zap.Error(err))
	}
}
