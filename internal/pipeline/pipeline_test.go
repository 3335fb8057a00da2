package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enviducate/enviducate/internal/assemble"
	"github.com/enviducate/enviducate/internal/cache"
	"github.com/enviducate/enviducate/internal/classify"
	"github.com/enviducate/enviducate/internal/dataset"
	geo "github.com/enviducate/enviducate/internal/geojson"
	"github.com/enviducate/enviducate/internal/model"
	"github.com/enviducate/enviducate/internal/registry"
	"github.com/enviducate/enviducate/internal/viz"
)

// countingSource wraps the Michigan fixtures and counts fetches.
type countingSource struct {
	mu    sync.Mutex
	calls int
	inner dataset.Source
}

func (c *countingSource) Dataset(ctx context.Context, category model.Category) (*dataset.BaseDataset, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Dataset(ctx, category)
}

func newTestPipeline(t *testing.T, source dataset.Source) (*Pipeline, *countingSource) {
	t.Helper()
	reg, err := registry.Load()
	require.NoError(t, err)

	if source == nil {
		source = dataset.NewMichigan(model.MichiganBounds, 10)
	}
	counting := &countingSource{inner: source}

	p := New(Deps{
		Classifier: classify.New(nil, "", time.Second),
		Summarizer: NewSummarizer(nil, "", time.Second),
		Source:     counting,
		Synth:      viz.New(),
		Registry:   reg,
		Cache:      cache.New(time.Hour),
		Assembler:  assemble.New("https://enviducate.org"),
		Bounds:     model.MichiganBounds,
		Budget:     50,
		GridSize:   10,
	})
	return p, counting
}

func TestQuery_EmptyQuery(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := p.Query(context.Background(), QueryRequest{Query: q})
		require.Error(t, err)
		assert.Equal(t, "validation_error", model.ErrorCode(err))
	}
}

func TestQuery_DeforestationEndToEnd(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	result, err := p.Query(context.Background(), QueryRequest{Query: "Forest loss near Marquette since 2018"})
	require.NoError(t, err)

	assert.Equal(t, model.CategoryDeforestation, result.Category)
	assert.Equal(t, "Forest loss near Marquette since 2018", result.OriginalQuery)
	assert.NotEmpty(t, result.Summary)
	assert.NotEmpty(t, result.Sources)
	assert.NotEmpty(t, result.Charities)
	assert.Contains(t, result.ShareableURL, "https://enviducate.org/result/")
	require.Len(t, result.Visualizations, 3)

	// Deforestation inverts the fixture grid's intensities.
	source := dataset.NewMichigan(model.MichiganBounds, 10)
	base, err := source.Dataset(context.Background(), model.CategoryDeforestation)
	require.NoError(t, err)

	heatmap := result.Visualizations[1].Heatmap
	require.NotNil(t, heatmap)
	require.Len(t, heatmap.Cells, len(base.Grid.Cells))
	for i := range heatmap.Cells {
		assert.InDelta(t, 1-base.Grid.Cells[i].Intensity, heatmap.Cells[i].Intensity, 1e-9)
	}

	// Signed metric changes are preserved for non-wildfire categories.
	numbers := result.Visualizations[2].Numbers
	require.NotNil(t, numbers)
	assert.Equal(t, -1.4, numbers.KeyMetrics[0].Change)
}

func TestQuery_CachedResultIsStable(t *testing.T) {
	p, counting := newTestPipeline(t, nil)
	ctx := context.Background()

	first, err := p.Query(ctx, QueryRequest{Query: "wildfire risk"})
	require.NoError(t, err)
	second, err := p.Query(ctx, QueryRequest{Query: "  WILDFIRE RISK  "})
	require.NoError(t, err)

	assert.Same(t, first, second, "normalized queries share a fingerprint")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ShareableURL, second.ShareableURL)
	assert.Equal(t, 1, counting.calls, "one dataset fetch per fingerprint")
}

func TestQuery_ConcurrentSameQuery(t *testing.T) {
	p, counting := newTestPipeline(t, nil)
	ctx := context.Background()

	const workers = 12
	results := make([]*model.EnvironmentalResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := p.Query(ctx, QueryRequest{Query: "forest fires up north"})
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, counting.calls)
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, results[0].ID, r.ID)
	}
}

func TestQuery_CategoryOverride(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	result, err := p.Query(context.Background(), QueryRequest{
		Query:    "forest loss", // would classify as deforestation
		Category: model.CategoryWater,
	})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryWater, result.Category)
}

func TestQuery_TimeRangeOverride(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	result, err := p.Query(context.Background(), QueryRequest{
		Query:     "biodiversity trends",
		TimeRange: "2000-2010",
	})
	require.NoError(t, err)
	assert.Equal(t, "2000-2010", result.Visualizations[2].Numbers.Timeframe)
}

func TestQuery_WildfireTieBreak(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	// "forests" matches the forest rule before "wildfire" matches fire.
	result, err := p.Query(context.Background(), QueryRequest{Query: "Wildfire risk in Michigan forests"})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryDeforestation, result.Category)
}

func collectionJSON(n int) []byte {
	features := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			features += ","
		}
		features += fmt.Sprintf(`{"type":"Feature","properties":{"name":"p%d"},"geometry":{"type":"Point","coordinates":[%f,%f]}}`,
			i, -86.0+float64(i)*0.01, 42.0+float64(i)*0.01)
	}
	return []byte(`{"type":"FeatureCollection","features":[` + features + `]}`)
}

func TestProcessCollection_SamplesToBudget(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	result, err := p.ProcessCollection(context.Background(), ProcessRequest{
		Name: "survey",
		Data: collectionJSON(120),
	})
	require.NoError(t, err)

	assert.Equal(t, model.CategoryEnvironmental, result.Category, "no query text defaults the category")
	pinpoints := result.Visualizations[0].Pinpoints
	require.NotNil(t, pinpoints)
	assert.Equal(t, 120, pinpoints.TotalPoints)
	assert.Equal(t, 50, pinpoints.SampledPoints)
}

func TestProcessCollection_SmallCollectionPassesThrough(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	result, err := p.ProcessCollection(context.Background(), ProcessRequest{
		Name: "small",
		Data: collectionJSON(7),
	})
	require.NoError(t, err)

	pinpoints := result.Visualizations[0].Pinpoints
	assert.Equal(t, 7, pinpoints.TotalPoints)
	assert.Equal(t, 7, pinpoints.SampledPoints)
	assert.Equal(t, "p0", pinpoints.Points[0].Label)
}

func TestProcessCollection_InvalidBudget(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	_, err := p.ProcessCollection(context.Background(), ProcessRequest{
		Name:   "bad",
		Data:   collectionJSON(5),
		Budget: -1,
	})
	require.Error(t, err)
	assert.Equal(t, "invalid_budget", model.ErrorCode(err))
}

func TestProcessCollection_NoData(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	_, err := p.ProcessCollection(context.Background(), ProcessRequest{Name: "empty"})
	require.Error(t, err)
	assert.Equal(t, "validation_error", model.ErrorCode(err))
}

func TestProcessCollection_QueryClassifies(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	result, err := p.ProcessCollection(context.Background(), ProcessRequest{
		Name:  "burn-sites",
		Query: "recent fire damage",
		Data:  collectionJSON(10),
	})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryWildfire, result.Category)
	assert.Equal(t, "recent fire damage", result.OriginalQuery)
}

func TestProcessCollection_RecordIdentityByContent(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	recordsFor := func(label string, lng, lat float64) []geo.GeometryRecord {
		return []geo.GeometryRecord{{
			Type:  geo.TypePoint,
			Label: label,
			Point: orb.Point{lng, lat},
		}}
	}

	// Same name, same record count, different content: each upload must get
	// its own result instead of the first upload's cached one.
	first, err := p.ProcessCollection(ctx, ProcessRequest{
		Name:    "sites",
		Records: recordsFor("A", -84.5, 42.7),
	})
	require.NoError(t, err)
	second, err := p.ProcessCollection(ctx, ProcessRequest{
		Name:    "sites",
		Records: recordsFor("B", -85.1, 43.2),
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "A", first.Visualizations[0].Pinpoints.Points[0].Label)
	assert.Equal(t, "B", second.Visualizations[0].Pinpoints.Points[0].Label)

	// Identical content still shares the fingerprint and the cached result.
	repeat, err := p.ProcessCollection(ctx, ProcessRequest{
		Name:    "sites",
		Records: recordsFor("A", -84.5, 42.7),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, repeat.ID)
}

func TestHashRecords_SensitiveToEveryComponent(t *testing.T) {
	base := []geo.GeometryRecord{{Type: geo.TypePoint, Label: "a", Point: orb.Point{-84, 42}}}

	relabeled := []geo.GeometryRecord{{Type: geo.TypePoint, Label: "b", Point: orb.Point{-84, 42}}}
	moved := []geo.GeometryRecord{{Type: geo.TypePoint, Label: "a", Point: orb.Point{-84, 43}}}

	assert.Equal(t, hashRecords(base), hashRecords(base))
	assert.NotEqual(t, hashRecords(base), hashRecords(relabeled))
	assert.NotEqual(t, hashRecords(base), hashRecords(moved))

	polygon := []geo.GeometryRecord{{
		Type:    geo.TypePolygon,
		Label:   "a",
		Polygon: orb.Polygon{orb.Ring{{-85, 42}, {-84, 42}, {-84, 43}, {-85, 42}}},
	}}
	assert.NotEqual(t, hashRecords(base), hashRecords(polygon))
}

func TestSummarizer_FallbackWithoutClient(t *testing.T) {
	s := NewSummarizer(nil, "", time.Second)
	got := s.Summarize(context.Background(), "forest loss", model.CategoryDeforestation, model.NumbersData{}, nil)
	assert.Contains(t, got, "forest loss")
	assert.Contains(t, got, "Michigan")
}
