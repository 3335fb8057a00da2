package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/enviducate/enviducate/internal/assemble"
	"github.com/enviducate/enviducate/internal/cache"
	"github.com/enviducate/enviducate/internal/classify"
	"github.com/enviducate/enviducate/internal/dataset"
	"github.com/enviducate/enviducate/internal/model"
	"github.com/enviducate/enviducate/internal/pipeline"
	"github.com/enviducate/enviducate/internal/registry"
	"github.com/enviducate/enviducate/internal/store"
	"github.com/enviducate/enviducate/internal/viz"
	"github.com/enviducate/enviducate/pkg/anthropic"
)

// env bundles everything a command needs, built once from config.
type env struct {
	Pipeline *pipeline.Pipeline
	Cache    *cache.ResultCache
	Store    store.Store
}

// Close releases held resources.
func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initPipeline wires the full pipeline from config. The store is optional:
// an open failure degrades to cache-only operation with a warning rather
// than refusing to start.
func initPipeline(ctx context.Context) (*env, error) {
	reg, err := registry.Load()
	if err != nil {
		return nil, err
	}

	var ai anthropic.Client
	if cfg.Anthropic.Key != "" {
		ai = anthropic.NewClient(cfg.Anthropic.Key, cfg.Anthropic.RequestsPerSec)
	} else {
		zap.L().Info("no anthropic key configured, using keyword heuristic and templated summaries")
	}
	aiTimeout := time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second

	var st store.Store
	if cfg.Store.DatabaseURL != "" {
		st, err = store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
		if err != nil {
			zap.L().Warn("store unavailable, results are cache-only",
				zap.String("driver", cfg.Store.Driver), zap.Error(err))
			st = nil
		} else if err := st.Migrate(ctx); err != nil {
			zap.L().Warn("store migration failed, results are cache-only", zap.Error(err))
			_ = st.Close()
			st = nil
		}
	}

	bounds := model.Bounds{
		West:  cfg.Bounds.West,
		South: cfg.Bounds.South,
		East:  cfg.Bounds.East,
		North: cfg.Bounds.North,
	}

	resultCache := cache.New(time.Duration(cfg.Cache.TTLHours) * time.Hour)

	p := pipeline.New(pipeline.Deps{
		Classifier: classify.New(ai, cfg.Anthropic.Model, aiTimeout),
		Summarizer: pipeline.NewSummarizer(ai, cfg.Anthropic.Model, aiTimeout),
		Source:     dataset.NewMichigan(bounds, cfg.Pipeline.GridSize),
		Synth:      viz.New(),
		Registry:   reg,
		Cache:      resultCache,
		Assembler:  assemble.New(cfg.Share.BaseURL),
		Store:      st,
		Bounds:     bounds,
		Budget:     cfg.Pipeline.SampleBudget,
		GridSize:   cfg.Pipeline.GridSize,
		Strict:     cfg.Pipeline.StrictGeometry,
	})

	return &env{Pipeline: p, Cache: resultCache, Store: st}, nil
}
