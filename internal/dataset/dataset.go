// Package dataset supplies the base datasets the synthesizer renders. The
// Source interface is an injected capability so tests and offline runs use
// deterministic fixtures instead of module-level state.
package dataset

import (
	"context"

	"github.com/enviducate/enviducate/internal/model"
)

// BaseDataset is the raw material for one synthesis pass: monitoring points,
// a density grid, and aggregate metrics, all category-specific but not yet
// category-adjusted.
type BaseDataset struct {
	Points      []model.CoordinatePoint
	TotalPoints int // size of the pre-sampling population
	Grid        model.HeatmapData
	Numbers     model.NumbersData
}

// Source provides the base dataset for a category.
type Source interface {
	Dataset(ctx context.Context, category model.Category) (*BaseDataset, error)
}
