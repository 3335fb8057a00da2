// Package model defines the core data types shared across the visualization
// pipeline: categories, coordinate points, visualization artifacts, and the
// assembled environmental result.
package model

import "time"

// Category classifies a query or dataset into exactly one environmental topic.
type Category string

const (
	CategoryDeforestation Category = "deforestation"
	CategoryBiodiversity  Category = "biodiversity"
	CategoryWildfire      Category = "wildfire"
	CategoryEnergy        Category = "energy"
	CategoryWater         Category = "water"
	CategoryForest        Category = "forest"
	CategoryWildlife      Category = "wildlife"
	CategoryAir           Category = "air"
	CategoryEnvironmental Category = "environmental"
)

// Categories lists every recognized category.
var Categories = []Category{
	CategoryDeforestation,
	CategoryBiodiversity,
	CategoryWildfire,
	CategoryEnergy,
	CategoryWater,
	CategoryForest,
	CategoryWildlife,
	CategoryAir,
	CategoryEnvironmental,
}

// Valid reports whether c is a recognized category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Severity grades a coordinate point's measured value.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// CoordinatePoint is a single labeled (lat, lng) marker. Value and Severity
// are populated by the data source for analysis output; raw extraction leaves
// them at their zero values.
type CoordinatePoint struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Label    string   `json:"label"`
	Value    float64  `json:"value,omitempty"`
	Severity Severity `json:"severity,omitempty"`
}

// Bounds is a geographic bounding box in degrees.
type Bounds struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// MichiganBounds is the default analysis region.
var MichiganBounds = Bounds{West: -90, South: 41, East: -82, North: 48}

// Contains reports whether the point (lat, lng) falls inside the box.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// HeatCell is one cell of a density grid. Intensity is normalized to [0, 1].
type HeatCell struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
	Value     float64 `json:"value"`
}

// NumericMetric is a single display-formatted aggregate metric with a signed
// percent change.
type NumericMetric struct {
	Label  string  `json:"label"`
	Value  string  `json:"value"`
	Change float64 `json:"change"`
}

// VisualizationType discriminates the three artifact kinds.
type VisualizationType string

const (
	VizPinpoints VisualizationType = "pinpoints"
	VizHeatmap   VisualizationType = "heatmap"
	VizNumbers   VisualizationType = "numbers"
)

// Metadata is shared across all three artifact kinds.
type Metadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// PinpointsData carries the sampled marker set.
type PinpointsData struct {
	Points        []CoordinatePoint `json:"points"`
	TotalPoints   int               `json:"totalPoints"`
	SampledPoints int               `json:"sampledPoints"`
}

// HeatmapData carries a fixed-size density grid over geographic bounds.
type HeatmapData struct {
	Bounds   Bounds     `json:"bounds"`
	GridSize int        `json:"gridSize"`
	Cells    []HeatCell `json:"cells"`
}

// NumbersData carries the aggregate numeric metrics.
type NumbersData struct {
	TotalArea        string          `json:"totalArea"`
	PercentageChange float64         `json:"percentageChange"`
	Timeframe        string          `json:"timeframe"`
	KeyMetrics       []NumericMetric `json:"keyMetrics"`
}

// Visualization is a tagged variant over the three artifact kinds. Exactly
// one of Pinpoints, Heatmap, or Numbers is non-nil, matching Type.
type Visualization struct {
	Type      VisualizationType `json:"type"`
	Metadata  Metadata          `json:"metadata"`
	Pinpoints *PinpointsData    `json:"pinpoints,omitempty"`
	Heatmap   *HeatmapData      `json:"heatmap,omitempty"`
	Numbers   *NumbersData      `json:"numbers,omitempty"`
}

// Charity is a recommended environmental organization.
type Charity struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// EnvironmentalResult is the aggregate root returned to callers. It is
// immutable after assembly; the result cache owns stored instances.
type EnvironmentalResult struct {
	ID             string          `json:"id"`
	OriginalQuery  string          `json:"originalQuery"`
	Category       Category        `json:"category"`
	Summary        string          `json:"summary"`
	Sources        []string        `json:"sources"`
	Charities      []Charity       `json:"charities"`
	Visualizations []Visualization `json:"visualizations"`
	ShareableURL   string          `json:"shareableUrl"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}
