package viz

import (
	"github.com/enviducate/enviducate/internal/model"
)

// BinPoints aggregates coordinate points into an n×n density grid over the
// given bounds. Intensity is the cell's point count normalized by the densest
// cell; points outside the bounds are ignored.
func BinPoints(points []model.CoordinatePoint, bounds model.Bounds, n int) model.HeatmapData {
	counts := make([]int, n*n)
	latStep := (bounds.North - bounds.South) / float64(n)
	lngStep := (bounds.East - bounds.West) / float64(n)

	maxCount := 0
	for _, p := range points {
		if !bounds.Contains(p.Lat, p.Lng) {
			continue
		}
		row := int((p.Lat - bounds.South) / latStep)
		col := int((p.Lng - bounds.West) / lngStep)
		// Points on the north/east edge land in the last cell.
		if row >= n {
			row = n - 1
		}
		if col >= n {
			col = n - 1
		}
		idx := row*n + col
		counts[idx]++
		if counts[idx] > maxCount {
			maxCount = counts[idx]
		}
	}

	cells := make([]model.HeatCell, 0, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			count := counts[row*n+col]
			intensity := 0.0
			if maxCount > 0 {
				intensity = float64(count) / float64(maxCount)
			}
			cells = append(cells, model.HeatCell{
				Lat:       bounds.South + (float64(row)+0.5)*latStep,
				Lng:       bounds.West + (float64(col)+0.5)*lngStep,
				Intensity: intensity,
				Value:     float64(count),
			})
		}
	}

	return model.HeatmapData{Bounds: bounds, GridSize: n, Cells: cells}
}
