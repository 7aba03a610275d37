package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/apexperf/roster-cli/internal/importer"
	"github.com/apexperf/roster-cli/internal/matcher"
	"github.com/apexperf/roster-cli/internal/model"
	"github.com/apexperf/roster-cli/internal/ocr"
	"github.com/apexperf/roster-cli/internal/review"
	"github.com/apexperf/roster-cli/internal/store"
)

// pipelineEnv holds the initialized store and pipeline components shared
// by the import/ocr/review/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Metrics  model.MetricRegistry
	Matcher  *matcher.Engine
	Queue    *review.Queue
	Importer *importer.Importer
	OCR      *ocr.Service
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initEnv sets up the store, runs migrations, and wires the matching,
// review, import, and OCR components. Callers should defer env.Close().
func initEnv(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	metrics := cfg.MetricRegistry()

	engine := matcher.New(matcher.Config{
		HighConfidence:    cfg.Matching.HighConfidence,
		LowConfidence:     cfg.Matching.LowConfidence,
		MaxAlternatives:   cfg.Matching.MaxAlternatives,
		MinNameSimilarity: cfg.Matching.MinNameSimilarity,
	})

	queue := review.NewQueue(st, metrics, cfg.Review.RetentionDays)
	imp := importer.New(st, engine, queue, metrics, cfg.OCR.DateFormats)

	ocrSvc, err := ocr.NewService(cfg.OCR, metrics)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{
		Store:    st,
		Metrics:  metrics,
		Matcher:  engine,
		Queue:    queue,
		Importer: imp,
		OCR:      ocrSvc,
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "roster.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
