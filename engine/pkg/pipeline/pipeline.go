// Package pipeline orchestrates the deterministic half of a question:
// schema inference, query interpretation, filtering, quality scoring and
// statistics, ending in the bounded FactContext handed to the narrator.
// The pipeline holds no per-request state; the only shared state is the
// schema/dataset cache, which is safe to recompute concurrently because
// inference is deterministic (last writer wins).
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/quality"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/query"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/stats"
)

// Config holds the pipeline dependencies.
type Config struct {
	Logger *slog.Logger
	Loader dataset.Loader
	Cache  *Cache // optional; nil disables caching
}

// Pipeline runs the analysis stages for one question.
type Pipeline struct {
	log    *slog.Logger
	loader dataset.Loader
	cache  *Cache
}

// New validates the config and builds a pipeline.
func New(cfg *Config) (*Pipeline, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("pipeline requires a dataset loader")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{log: log, loader: cfg.Loader, cache: cfg.Cache}, nil
}

// LoadDataset fetches a dataset through the cache.
func (p *Pipeline) LoadDataset(ctx context.Context, handle, url string) (*dataset.Dataset, error) {
	if p.cache != nil {
		if ds, ok := p.cache.Dataset(handle); ok {
			return ds, nil
		}
	}
	ds, err := p.loader.Load(ctx, handle, url)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		p.cache.PutDataset(handle, ds)
	}
	return ds, nil
}

// Analyze runs the full deterministic pipeline over an already-loaded
// dataset and returns the fact context for the narrator. It never calls
// the model and consumes no quota.
func (p *Pipeline) Analyze(ctx context.Context, ds *dataset.Dataset, question string) (FactContext, error) {
	if err := ctx.Err(); err != nil {
		return FactContext{}, err
	}

	sch := p.inferSchema(ds)
	pq := query.Parse(question, sch, ds)
	filtered := query.Apply(ds, sch, pq)
	rep := quality.Score(filtered.Data, sch)
	facts := stats.Compute(ds, filtered.Data, sch, pq, rep)

	fc := Build(sch, pq, filtered, rep, facts)
	p.log.Debug("analysis complete",
		"handle", ds.Handle,
		"intent", pq.Intent,
		"rows", filtered.Data.NumRows(),
		"confidence", rep.Confidence,
		"warnings", len(fc.Warnings),
	)
	return fc, nil
}

// Describe builds a fact context for the dataset as a whole, with no
// question driving it. Summaries and quizzes run on this.
func (p *Pipeline) Describe(ctx context.Context, ds *dataset.Dataset) (FactContext, error) {
	if err := ctx.Err(); err != nil {
		return FactContext{}, err
	}

	sch := p.inferSchema(ds)
	rep := quality.Score(ds, sch)
	facts := stats.Describe(ds, sch)

	fc := Build(sch, query.ParsedQuery{}, query.FilterResult{Data: ds}, rep, facts)
	p.log.Debug("description complete",
		"handle", ds.Handle,
		"rows", ds.NumRows(),
		"confidence", rep.Confidence,
	)
	return fc, nil
}

func (p *Pipeline) inferSchema(ds *dataset.Dataset) schema.DatasetSchema {
	if p.cache != nil {
		if sch, ok := p.cache.Schema(ds.Fingerprint); ok {
			return sch
		}
	}
	sch := schema.Infer(ds)
	if p.cache != nil {
		p.cache.PutSchema(ds.Fingerprint, sch)
	}
	return sch
}
