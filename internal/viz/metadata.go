package viz

import (
	"time"

	"github.com/enviducate/enviducate/internal/model"
)

type categoryMeta struct {
	Title       string
	Description string
	Source      string
}

func (m categoryMeta) stamped(t time.Time) model.Metadata {
	return model.Metadata{
		Title:       m.Title,
		Description: m.Description,
		Source:      m.Source,
		LastUpdated: t,
	}
}

var defaultMeta = categoryMeta{
	Title:       "Michigan Environmental Analysis",
	Description: "Geospatial environmental monitoring data across Michigan",
	Source:      "Michigan Environmental Data",
}

var metaByCategory = map[model.Category]categoryMeta{
	model.CategoryDeforestation: {
		Title:       "Michigan Forest Loss",
		Description: "Tree cover loss across Michigan derived from the Hansen Global Forest Change dataset",
		Source:      "Hansen Global Forest Change 2024",
	},
	model.CategoryBiodiversity: {
		Title:       "Michigan Biodiversity",
		Description: "Habitat quality and species diversity across Michigan wetlands and forests",
		Source:      "Great Lakes Biodiversity Project",
	},
	model.CategoryWildfire: {
		Title:       "Michigan Wildfire Risk",
		Description: "Fire incidence and burn risk across Michigan forest regions",
		Source:      "MODIS Active Fire Detections",
	},
	model.CategoryWater: {
		Title:       "Michigan Water Quality",
		Description: "Surface water quality indicators across Michigan watersheds and the Great Lakes shoreline",
		Source:      "USGS Great Lakes Program",
	},
	model.CategoryAir: {
		Title:       "Michigan Air Quality",
		Description: "Aerosol and air quality indicators across Michigan urban and industrial corridors",
		Source:      "US EPA Air Quality System",
	},
	model.CategoryEnergy: {
		Title:       "Michigan Energy Footprint",
		Description: "Energy infrastructure and clean energy transition indicators across Michigan",
		Source:      "Michigan Public Service Commission",
	},
	model.CategoryForest: {
		Title:       "Michigan Forest Health",
		Description: "Forest cover and canopy health across Michigan's state and national forests",
		Source:      "Michigan DNR Forest Resources",
	},
	model.CategoryWildlife: {
		Title:       "Michigan Wildlife Habitat",
		Description: "Wildlife habitat condition and species range indicators across Michigan",
		Source:      "Michigan DNR Wildlife Division",
	},
}

func metadataFor(category model.Category) categoryMeta {
	if m, ok := metaByCategory[category]; ok {
		return m
	}
	return defaultMeta
}
