// Package geojson decodes GeoJSON feature collections and flattens their
// geometries into labeled coordinate points.
package geojson

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/enviducate/enviducate/internal/model"
)

// GeometryType is the closed set of supported geometry kinds.
type GeometryType string

const (
	TypePoint        GeometryType = "Point"
	TypePolygon      GeometryType = "Polygon"
	TypeMultiPolygon GeometryType = "MultiPolygon"
)

// GeometryRecord is one parsed feature: a tagged geometry variant plus the
// resolved label. Coordinates keep GeoJSON (lng, lat) order until extraction.
type GeometryRecord struct {
	Type         GeometryType
	Label        string
	Point        orb.Point
	Polygon      orb.Polygon
	MultiPolygon orb.MultiPolygon
}

// UnsupportedGeometryError reports a geometry tag outside the supported set.
type UnsupportedGeometryError struct {
	GeometryType string
}

func (e *UnsupportedGeometryError) Error() string {
	return fmt.Sprintf("unsupported geometry type %q", e.GeometryType)
}

// Code returns the stable API error code.
func (e *UnsupportedGeometryError) Code() string { return "unsupported_geometry" }

// labelKeys is the property lookup order for a feature's label.
var labelKeys = []string{"FieldName", "name"}

func resolveLabel(props geojson.Properties) string {
	for _, key := range labelKeys {
		if v, ok := props[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return "Unknown"
}

// Decode parses a GeoJSON FeatureCollection into geometry records. In strict
// mode an unsupported geometry fails the whole collection; otherwise the
// offending feature is skipped and counted.
func Decode(data []byte, strict bool) ([]GeometryRecord, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrap(err, "geojson: unmarshal feature collection")
	}

	records := make([]GeometryRecord, 0, len(fc.Features))
	skipped := 0
	for _, feature := range fc.Features {
		rec, err := fromFeature(feature)
		if err != nil {
			if strict {
				return nil, err
			}
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		zap.L().Warn("geojson: skipped unsupported features", zap.Int("skipped", skipped))
	}
	return records, nil
}

func fromFeature(feature *geojson.Feature) (GeometryRecord, error) {
	rec := GeometryRecord{Label: resolveLabel(feature.Properties)}

	switch geom := feature.Geometry.(type) {
	case orb.Point:
		rec.Type = TypePoint
		rec.Point = geom
	case orb.Polygon:
		rec.Type = TypePolygon
		rec.Polygon = geom
	case orb.MultiPolygon:
		rec.Type = TypeMultiPolygon
		rec.MultiPolygon = geom
	default:
		geoType := "<nil>"
		if geom != nil {
			geoType = geom.GeoJSONType()
		}
		return GeometryRecord{}, &UnsupportedGeometryError{GeometryType: geoType}
	}
	return rec, nil
}

// Extract flattens records into coordinate points. Every vertex of every ring
// is a candidate point; ring roles (exterior vs hole) are not distinguished
// and no geometry validation is performed. The (lng, lat) input order is
// swapped to (lat, lng) here, exactly once.
func Extract(records []GeometryRecord) ([]model.CoordinatePoint, error) {
	var points []model.CoordinatePoint
	for _, rec := range records {
		switch rec.Type {
		case TypePoint:
			points = append(points, toPoint(rec.Point, rec.Label))
		case TypePolygon:
			points = appendPolygon(points, rec.Polygon, rec.Label)
		case TypeMultiPolygon:
			for _, polygon := range rec.MultiPolygon {
				points = appendPolygon(points, polygon, rec.Label)
			}
		default:
			return nil, &UnsupportedGeometryError{GeometryType: string(rec.Type)}
		}
	}
	return points, nil
}

func appendPolygon(points []model.CoordinatePoint, polygon orb.Polygon, label string) []model.CoordinatePoint {
	for _, ring := range polygon {
		for _, vertex := range ring {
			points = append(points, toPoint(vertex, label))
		}
	}
	return points
}

func toPoint(p orb.Point, label string) model.CoordinatePoint {
	return model.CoordinatePoint{Lat: p.Lat(), Lng: p.Lon(), Label: label}
}
