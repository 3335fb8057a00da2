// Package viz synthesizes the three visualization artifacts (pinpoints,
// heatmap, numbers) from one base dataset, applying category-specific
// adjustments.
package viz

import (
	"math"
	"time"

	"github.com/enviducate/enviducate/internal/dataset"
	"github.com/enviducate/enviducate/internal/model"
)

// wildfireDampening scales wildfire point values down to reflect
// lower-confidence risk scores.
const wildfireDampening = 0.6

// Synthesizer renders base datasets into visualization artifacts. Synthesis
// is pure given (category, dataset); the clock is injectable for tests.
type Synthesizer struct {
	now func() time.Time
}

// New creates a Synthesizer.
func New() *Synthesizer {
	return &Synthesizer{now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (s *Synthesizer) WithNow(t time.Time) *Synthesizer {
	s.now = func() time.Time { return t }
	return s
}

// Synthesize produces exactly three artifacts, one of each kind, always in
// [pinpoints, heatmap, numbers] order.
//
// Category adjustments:
//   - wildfire: point values scaled by the dampening factor; metric changes
//     forced to absolute value so risk always reads as an increase.
//   - deforestation: heat intensities inverted (1 - i) so loss reads as high.
//
// Severity is supplied by the data source and is not recomputed here.
func (s *Synthesizer) Synthesize(category model.Category, base *dataset.BaseDataset) []model.Visualization {
	stamp := s.now()
	meta := metadataFor(category)

	return []model.Visualization{
		{
			Type:      model.VizPinpoints,
			Metadata:  meta.stamped(stamp),
			Pinpoints: s.pinpoints(category, base),
		},
		{
			Type:     model.VizHeatmap,
			Metadata: meta.stamped(stamp),
			Heatmap:  s.heatmap(category, base),
		},
		{
			Type:     model.VizNumbers,
			Metadata: meta.stamped(stamp),
			Numbers:  s.numbers(category, base),
		},
	}
}

func (s *Synthesizer) pinpoints(category model.Category, base *dataset.BaseDataset) *model.PinpointsData {
	points := make([]model.CoordinatePoint, len(base.Points))
	copy(points, base.Points)

	if category == model.CategoryWildfire {
		for i := range points {
			points[i].Value *= wildfireDampening
		}
	}

	return &model.PinpointsData{
		Points:        points,
		TotalPoints:   base.TotalPoints,
		SampledPoints: len(points),
	}
}

func (s *Synthesizer) heatmap(category model.Category, base *dataset.BaseDataset) *model.HeatmapData {
	cells := make([]model.HeatCell, len(base.Grid.Cells))
	copy(cells, base.Grid.Cells)

	if category == model.CategoryDeforestation {
		for i := range cells {
			cells[i].Intensity = 1 - cells[i].Intensity
		}
	}

	return &model.HeatmapData{
		Bounds:   base.Grid.Bounds,
		GridSize: base.Grid.GridSize,
		Cells:    cells,
	}
}

func (s *Synthesizer) numbers(category model.Category, base *dataset.BaseDataset) *model.NumbersData {
	metrics := make([]model.NumericMetric, len(base.Numbers.KeyMetrics))
	copy(metrics, base.Numbers.KeyMetrics)

	if category == model.CategoryWildfire {
		for i := range metrics {
			metrics[i].Change = math.Abs(metrics[i].Change)
		}
	}

	return &model.NumbersData{
		TotalArea:        base.Numbers.TotalArea,
		PercentageChange: base.Numbers.PercentageChange,
		Timeframe:        base.Numbers.Timeframe,
		KeyMetrics:       metrics,
	}
}
