package dataset

import (
	"context"
	"hash/fnv"

	"github.com/enviducate/enviducate/internal/model"
)

// Michigan is a deterministic statewide fixture source. Monitoring points,
// grid intensities, and metrics are fixed functions of the category, so
// repeated calls always return identical data.
type Michigan struct {
	bounds   model.Bounds
	gridSize int
}

// NewMichigan creates the fixture source over the given bounds and grid size.
func NewMichigan(bounds model.Bounds, gridSize int) *Michigan {
	return &Michigan{bounds: bounds, gridSize: gridSize}
}

// Dataset returns the base dataset for a category.
func (m *Michigan) Dataset(_ context.Context, category model.Category) (*BaseDataset, error) {
	points := monitoringPoints(category)
	return &BaseDataset{
		Points:      points,
		TotalPoints: len(points),
		Grid: model.HeatmapData{
			Bounds:   m.bounds,
			GridSize: m.gridSize,
			Cells:    m.gridCells(category),
		},
		Numbers: metricsFor(category),
	}, nil
}

// gridCells fills the grid with intensities derived from an FNV hash of the
// category and cell index. Arbitrary but stable: the same category always
// produces the same grid.
func (m *Michigan) gridCells(category model.Category) []model.HeatCell {
	n := m.gridSize
	cells := make([]model.HeatCell, 0, n*n)
	latStep := (m.bounds.North - m.bounds.South) / float64(n)
	lngStep := (m.bounds.East - m.bounds.West) / float64(n)

	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			intensity := cellIntensity(category, row, col)
			cells = append(cells, model.HeatCell{
				Lat:       m.bounds.South + (float64(row)+0.5)*latStep,
				Lng:       m.bounds.West + (float64(col)+0.5)*lngStep,
				Intensity: intensity,
				Value:     intensity * 100,
			})
		}
	}
	return cells
}

func cellIntensity(category model.Category, row, col int) float64 {
	h := fnv.New32a()
	h.Write([]byte(category))
	h.Write([]byte{byte(row), byte(col)})
	return float64(h.Sum32()%1000) / 999.0
}

// monitoringPoints returns the fixed incident sites for a category. Values
// and severities come from the curated site table; categories without their
// own table share the statewide reference sites.
func monitoringPoints(category model.Category) []model.CoordinatePoint {
	if pts, ok := sitesByCategory[category]; ok {
		return pts
	}
	return referenceSites
}

var sitesByCategory = map[model.Category][]model.CoordinatePoint{
	model.CategoryBiodiversity: {
		{Lat: 42.331429, Lng: -83.045753, Label: "Belle Isle Fish Habitat", Value: 0.62, Severity: model.SeverityMedium},
		{Lat: 43.591209, Lng: -84.773506, Label: "Saginaw Bay Wetlands", Value: 0.81, Severity: model.SeverityHigh},
		{Lat: 42.940762, Lng: -85.728843, Label: "Grand River Watershed", Value: 0.44, Severity: model.SeverityMedium},
		{Lat: 44.762131, Lng: -84.727684, Label: "Kirtland's Warbler Historic Range", Value: 0.73, Severity: model.SeverityHigh},
		{Lat: 42.169799, Lng: -83.642687, Label: "River Raisin PCB Zone", Value: 0.29, Severity: model.SeverityLow},
	},
	model.CategoryDeforestation: {
		{Lat: 44.314844, Lng: -85.602364, Label: "Pere Marquette Clear-Cut", Value: 0.77, Severity: model.SeverityHigh},
		{Lat: 46.182541, Lng: -84.353402, Label: "Upper Peninsula Mining Site", Value: 0.58, Severity: model.SeverityMedium},
		{Lat: 43.591209, Lng: -84.773506, Label: "Midland Flood Impact Zone", Value: 0.41, Severity: model.SeverityMedium},
		{Lat: 45.571184, Lng: -84.733705, Label: "Cheboygan Storm Damage", Value: 0.33, Severity: model.SeverityLow},
		{Lat: 42.940762, Lng: -85.728843, Label: "Grand Rapids Urban Forest Loss", Value: 0.69, Severity: model.SeverityHigh},
	},
	model.CategoryWildfire: {
		{Lat: 44.314844, Lng: -85.602364, Label: "Huron Forest Burn Site", Value: 0.84, Severity: model.SeverityHigh},
		{Lat: 45.571184, Lng: -84.733705, Label: "Grayling Fire Zone", Value: 0.91, Severity: model.SeverityHigh},
		{Lat: 46.182541, Lng: -84.353402, Label: "UP Peat Fire Location", Value: 0.47, Severity: model.SeverityMedium},
		{Lat: 43.591209, Lng: -84.773506, Label: "State Game Area Burn", Value: 0.36, Severity: model.SeverityLow},
		{Lat: 44.762131, Lng: -84.727684, Label: "Au Sable River Fire", Value: 0.55, Severity: model.SeverityMedium},
	},
}

// referenceSites are the statewide monitoring locations used for categories
// without a dedicated incident table.
var referenceSites = []model.CoordinatePoint{
	{Lat: 42.3314, Lng: -83.0458, Label: "Detroit Metro", Value: 0.52, Severity: model.SeverityMedium},
	{Lat: 43.5, Lng: -83.5, Label: "Saginaw Bay", Value: 0.61, Severity: model.SeverityMedium},
	{Lat: 42.9634, Lng: -85.6681, Label: "Grand Rapids", Value: 0.38, Severity: model.SeverityLow},
	{Lat: 46.4, Lng: -87.4, Label: "Upper Peninsula", Value: 0.72, Severity: model.SeverityHigh},
	{Lat: 45.8174, Lng: -84.7278, Label: "Mackinac Bridge", Value: 0.31, Severity: model.SeverityLow},
	{Lat: 44.7631, Lng: -85.6206, Label: "Traverse City", Value: 0.46, Severity: model.SeverityMedium},
	{Lat: 42.7325, Lng: -84.5555, Label: "Lansing", Value: 0.43, Severity: model.SeverityMedium},
	{Lat: 46.5436, Lng: -87.3953, Label: "Marquette", Value: 0.67, Severity: model.SeverityHigh},
}

// michiganArea is the state's total area, used as the default affected-area figure.
const michiganArea = "250,493 km²"

func metricsFor(category model.Category) model.NumbersData {
	if n, ok := numbersByCategory[category]; ok {
		return n
	}
	return model.NumbersData{
		TotalArea:        michiganArea,
		PercentageChange: -0.4,
		Timeframe:        "2017-2024",
		KeyMetrics: []model.NumericMetric{
			{Label: "Environmental Quality Index", Value: "0.64", Change: -0.4},
			{Label: "Monitored Sites", Value: "8", Change: 2.1},
			{Label: "Protected Area", Value: "18,700 km²", Change: 1.3},
		},
	}
}

var numbersByCategory = map[model.Category]model.NumbersData{
	model.CategoryDeforestation: {
		TotalArea:        michiganArea,
		PercentageChange: -2.1,
		Timeframe:        "2017-2024",
		KeyMetrics: []model.NumericMetric{
			{Label: "Deforestation Rate", Value: "3.2%", Change: -1.4},
			{Label: "Mean NDVI", Value: "0.68", Change: 0.8},
			{Label: "Forest Cover", Value: "48,900 km²", Change: -2.1},
		},
	},
	model.CategoryBiodiversity: {
		TotalArea:        michiganArea,
		PercentageChange: 1.2,
		Timeframe:        "2017-2024",
		KeyMetrics: []model.NumericMetric{
			{Label: "Biodiversity Index", Value: "0.74", Change: 1.2},
			{Label: "Species Count", Value: "74", Change: 3.5},
			{Label: "Wetland Area", Value: "11,000 km²", Change: -0.6},
		},
	},
	model.CategoryWildfire: {
		TotalArea:        michiganArea,
		PercentageChange: 12.4,
		Timeframe:        "2017-2024",
		KeyMetrics: []model.NumericMetric{
			{Label: "Wildfire Count", Value: "17", Change: 12.4},
			{Label: "Burned Area", Value: "310 km²", Change: 8.9},
			{Label: "High-Risk Days", Value: "42", Change: -4.2},
		},
	},
	model.CategoryWater: {
		TotalArea:        michiganArea,
		PercentageChange: 0.9,
		Timeframe:        "2017-2024",
		KeyMetrics: []model.NumericMetric{
			{Label: "Water Quality Index", Value: "0.71", Change: 0.9},
			{Label: "Mean NDWI", Value: "0.42", Change: 1.1},
			{Label: "Turbidity Advisories", Value: "23", Change: -2.8},
		},
	},
	model.CategoryAir: {
		TotalArea:        michiganArea,
		PercentageChange: -1.7,
		Timeframe:        "2017-2024",
		KeyMetrics: []model.NumericMetric{
			{Label: "Air Quality Index", Value: "0.77", Change: -1.7},
			{Label: "Aerosol Optical Depth", Value: "0.21", Change: -3.2},
			{Label: "Ozone Action Days", Value: "11", Change: 5.4},
		},
	},
}
