// Package pipeline orchestrates one request end to end: classify, fetch the
// base dataset, synthesize the three visualization artifacts, generate the
// summary, and assemble the cached, shareable result.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/enviducate/enviducate/internal/assemble"
	"github.com/enviducate/enviducate/internal/cache"
	"github.com/enviducate/enviducate/internal/classify"
	"github.com/enviducate/enviducate/internal/dataset"
	geo "github.com/enviducate/enviducate/internal/geojson"
	"github.com/enviducate/enviducate/internal/model"
	"github.com/enviducate/enviducate/internal/registry"
	"github.com/enviducate/enviducate/internal/sample"
	"github.com/enviducate/enviducate/internal/store"
	"github.com/enviducate/enviducate/internal/viz"
)

// Deps carries the collaborators a Pipeline needs. Store may be nil; results
// are then cache-only and share URLs do not survive a restart.
type Deps struct {
	Classifier *classify.Classifier
	Summarizer *Summarizer
	Source     dataset.Source
	Synth      *viz.Synthesizer
	Registry   *registry.Registry
	Cache      *cache.ResultCache
	Assembler  *assemble.Assembler
	Store      store.Store

	Bounds   model.Bounds
	Budget   int
	GridSize int
	Strict   bool
}

// Pipeline runs environmental queries and geodata collections through the
// full visualization flow.
type Pipeline struct {
	deps Deps
}

// New creates a Pipeline. Zero Budget and GridSize fall back to the package
// defaults.
func New(deps Deps) *Pipeline {
	if deps.Budget <= 0 {
		deps.Budget = sample.DefaultBudget
	}
	if deps.GridSize <= 0 {
		deps.GridSize = 10
	}
	if deps.Bounds == (model.Bounds{}) {
		deps.Bounds = model.MichiganBounds
	}
	return &Pipeline{deps: deps}
}

// QueryRequest is a free-text environmental question. Category, when valid,
// skips classification; TimeRange overrides the dataset's default timeframe.
type QueryRequest struct {
	Query     string         `json:"query"`
	Category  model.Category `json:"category,omitempty"`
	TimeRange string         `json:"timeRange,omitempty"`
}

// Query answers a free-text question with a complete EnvironmentalResult.
// Identical concurrent queries collapse into one computation; repeated
// queries within the cache window return the stored result with the same id
// and shareable URL.
func (p *Pipeline) Query(ctx context.Context, req QueryRequest) (*model.EnvironmentalResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, errEmptyQuery()
	}

	fp := cache.Fingerprint(req.Query, p.queryDatasetID(req))
	return p.deps.Cache.GetOrCompute(ctx, fp, func(ctx context.Context) (*model.EnvironmentalResult, error) {
		return p.computeQuery(ctx, req, fp)
	})
}

// queryDatasetID folds the non-query request knobs into the fingerprint so an
// override produces a distinct cached result.
func (p *Pipeline) queryDatasetID(req QueryRequest) string {
	id := "michigan"
	if req.Category.Valid() {
		id += ":" + string(req.Category)
	}
	if req.TimeRange != "" {
		id += "@" + req.TimeRange
	}
	return id
}

func (p *Pipeline) computeQuery(ctx context.Context, req QueryRequest, fp string) (*model.EnvironmentalResult, error) {
	category := req.Category
	if !category.Valid() {
		category = p.deps.Classifier.Classify(ctx, req.Query)
	}

	base, err := p.deps.Source.Dataset(ctx, category)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: dataset for %s", category)
	}
	if req.TimeRange != "" {
		base.Numbers.Timeframe = req.TimeRange
	}

	sources := p.deps.Registry.SourcesFor(category)

	// Synthesis is pure CPU; the summary is a network call. Run both legs
	// concurrently and fail the flight if either reports an error.
	var (
		visualizations []model.Visualization
		summary        string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		visualizations = p.deps.Synth.Synthesize(category, base)
		return nil
	})
	g.Go(func() error {
		summary = p.deps.Summarizer.Summarize(gctx, req.Query, category, base.Numbers, sources)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := p.deps.Assembler.Assemble(assemble.Input{
		Query:          req.Query,
		Fingerprint:    fp,
		Category:       category,
		Summary:        summary,
		Sources:        sources,
		Charities:      p.deps.Registry.CharitiesFor(category),
		Visualizations: visualizations,
	})
	if err != nil {
		return nil, err
	}

	p.persist(ctx, result)
	zap.L().Info("pipeline: query answered",
		zap.String("category", string(category)),
		zap.String("result_id", result.ID),
	)
	return result, nil
}

// ProcessRequest is a geodata collection to visualize. Data holds raw GeoJSON;
// Records carries pre-parsed geometries (the shapefile path). Exactly one of
// the two should be set.
type ProcessRequest struct {
	Name     string
	Query    string
	Data     []byte
	Records  []geo.GeometryRecord
	Category model.Category
	Budget   int
}

// ProcessCollection turns a caller-supplied geometry collection into a
// complete result: decode, extract, sample, bin into the configured grid,
// and synthesize the three artifacts around the measured data.
func (p *Pipeline) ProcessCollection(ctx context.Context, req ProcessRequest) (*model.EnvironmentalResult, error) {
	if len(req.Data) == 0 && len(req.Records) == 0 {
		return nil, &ValidationError{Detail: "no geometry data provided"}
	}

	fp := cache.Fingerprint(req.Name+" "+req.Query, p.collectionID(req))
	return p.deps.Cache.GetOrCompute(ctx, fp, func(ctx context.Context) (*model.EnvironmentalResult, error) {
		return p.computeCollection(ctx, req, fp)
	})
}

// collectionID derives the dataset identity from the collection content so
// distinct uploads never share a fingerprint.
func (p *Pipeline) collectionID(req ProcessRequest) string {
	if len(req.Data) > 0 {
		return fmt.Sprintf("collection:%x", sha256.Sum256(req.Data))
	}
	return fmt.Sprintf("collection:records:%x", hashRecords(req.Records))
}

// hashRecords digests every record's type, label, and coordinates so two
// record sets differ in identity unless they are geometrically identical.
func hashRecords(records []geo.GeometryRecord) [sha256.Size]byte {
	h := sha256.New()
	for _, rec := range records {
		fmt.Fprintf(h, "%s|%s;", rec.Type, rec.Label)
		switch rec.Type {
		case geo.TypePoint:
			writePoint(h, rec.Point)
		case geo.TypePolygon:
			writePolygon(h, rec.Polygon)
		case geo.TypeMultiPolygon:
			for _, poly := range rec.MultiPolygon {
				writePolygon(h, poly)
			}
		}
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func writePoint(h hash.Hash, pt orb.Point) {
	_ = binary.Write(h, binary.LittleEndian, pt)
}

func writePolygon(h hash.Hash, poly orb.Polygon) {
	for _, ring := range poly {
		for _, pt := range ring {
			writePoint(h, pt)
		}
	}
}

func (p *Pipeline) computeCollection(ctx context.Context, req ProcessRequest, fp string) (*model.EnvironmentalResult, error) {
	records := req.Records
	if len(req.Data) > 0 {
		decoded, err := geo.Decode(req.Data, p.deps.Strict)
		if err != nil {
			return nil, err
		}
		records = decoded
	}

	points, err := geo.Extract(records)
	if err != nil {
		return nil, err
	}

	budget := req.Budget
	if budget == 0 {
		budget = p.deps.Budget
	}
	sampled, err := sample.Points(points, budget)
	if err != nil {
		return nil, err
	}

	category := req.Category
	if !category.Valid() {
		if strings.TrimSpace(req.Query) != "" {
			category = p.deps.Classifier.Classify(ctx, req.Query)
		} else {
			category = model.CategoryEnvironmental
		}
	}

	base := &dataset.BaseDataset{
		Points:      sampled,
		TotalPoints: len(points),
		Grid:        viz.BinPoints(points, p.deps.Bounds, p.deps.GridSize),
		Numbers:     p.collectionNumbers(records, points, sampled),
	}

	sources := p.deps.Registry.SourcesFor(category)
	query := req.Query
	if query == "" {
		query = req.Name
	}

	var (
		visualizations []model.Visualization
		summary        string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		visualizations = p.deps.Synth.Synthesize(category, base)
		return nil
	})
	g.Go(func() error {
		summary = p.deps.Summarizer.Summarize(gctx, query, category, base.Numbers, sources)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := p.deps.Assembler.Assemble(assemble.Input{
		Query:          query,
		Fingerprint:    fp,
		Category:       category,
		Summary:        summary,
		Sources:        sources,
		Charities:      p.deps.Registry.CharitiesFor(category),
		Visualizations: visualizations,
	})
	if err != nil {
		return nil, err
	}

	p.persist(ctx, result)
	zap.L().Info("pipeline: collection processed",
		zap.String("name", req.Name),
		zap.String("category", string(category)),
		zap.Int("total_points", len(points)),
		zap.Int("sampled_points", len(sampled)),
	)
	return result, nil
}

// collectionNumbers builds the aggregate metrics for a processed collection
// from what was actually measured.
func (p *Pipeline) collectionNumbers(records []geo.GeometryRecord, points, sampled []model.CoordinatePoint) model.NumbersData {
	area := geo.ApproxAreaKm2(records)
	totalArea := "n/a"
	if area > 0 {
		totalArea = fmt.Sprintf("%.0f km²", area)
	}

	inBounds := 0
	for _, pt := range points {
		if p.deps.Bounds.Contains(pt.Lat, pt.Lng) {
			inBounds++
		}
	}

	return model.NumbersData{
		TotalArea: totalArea,
		Timeframe: "current",
		KeyMetrics: []model.NumericMetric{
			{Label: "Extracted Points", Value: fmt.Sprintf("%d", len(points))},
			{Label: "Sampled Points", Value: fmt.Sprintf("%d", len(sampled))},
			{Label: "Points In Bounds", Value: fmt.Sprintf("%d", inBounds)},
			{Label: "Geometry Records", Value: fmt.Sprintf("%d", len(records))},
		},
	}
}

// persist saves the result best-effort. A storage failure is logged but never
// fails a request the cache can still serve.
func (p *Pipeline) persist(ctx context.Context, result *model.EnvironmentalResult) {
	if p.deps.Store == nil {
		return
	}
	if err := p.deps.Store.SaveResult(ctx, result); err != nil {
		zap.L().Warn("pipeline: persist result failed",
			zap.String("result_id", result.ID), zap.Error(err))
	}
}
