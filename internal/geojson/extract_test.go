package geojson

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mixedCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"FieldName": "Station Alpha"},
      "geometry": {"type": "Point", "coordinates": [-84.5, 42.7]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Preserve"},
      "geometry": {"type": "Polygon", "coordinates": [[[-85.0, 42.0], [-84.0, 42.0], [-84.0, 43.0], [-85.0, 42.0]]]}
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {"type": "LineString", "coordinates": [[-84.0, 42.0], [-83.0, 42.5]]}
    }
  ]
}`

func TestDecode_LenientSkipsUnsupported(t *testing.T) {
	records, err := Decode([]byte(mixedCollection), false)
	require.NoError(t, err)
	require.Len(t, records, 2, "the LineString feature is skipped, not fatal")

	assert.Equal(t, TypePoint, records[0].Type)
	assert.Equal(t, "Station Alpha", records[0].Label)
	assert.Equal(t, TypePolygon, records[1].Type)
	assert.Equal(t, "Preserve", records[1].Label)
}

func TestDecode_StrictFailsWholeCollection(t *testing.T) {
	_, err := Decode([]byte(mixedCollection), true)
	require.Error(t, err)

	var unsupported *UnsupportedGeometryError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "LineString", unsupported.GeometryType)
	assert.Equal(t, "unsupported_geometry", unsupported.Code())
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`{"type": "FeatureCollection"`), false)
	require.Error(t, err)
}

func TestResolveLabel_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		want  string
	}{
		{"field name wins", map[string]any{"FieldName": "A", "name": "B"}, "A"},
		{"name is the fallback", map[string]any{"name": "B"}, "B"},
		{"empty field name skipped", map[string]any{"FieldName": "", "name": "B"}, "B"},
		{"non-string field name skipped", map[string]any{"FieldName": 7, "name": "B"}, "B"},
		{"nothing set", map[string]any{}, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveLabel(tt.props))
		})
	}
}

func TestExtract_SwapsCoordinateOrderOnce(t *testing.T) {
	records := []GeometryRecord{{
		Type:  TypePoint,
		Label: "swap",
		// GeoJSON order: (lng, lat).
		Point: orb.Point{-84.5, 42.7},
	}}

	points, err := Extract(records)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 42.7, points[0].Lat)
	assert.Equal(t, -84.5, points[0].Lng)
}

func TestExtract_MultiPolygonFlattensEveryVertex(t *testing.T) {
	// 2 polygons × 2 rings × 4 vertices = 16 points; holes are not treated
	// differently from exterior rings.
	ring := orb.Ring{{-85, 42}, {-84, 42}, {-84, 43}, {-85, 42}}
	polygon := orb.Polygon{ring, ring}
	records := []GeometryRecord{{
		Type:         TypeMultiPolygon,
		Label:        "mp",
		MultiPolygon: orb.MultiPolygon{polygon, polygon},
	}}

	points, err := Extract(records)
	require.NoError(t, err)
	require.Len(t, points, 16)
	for _, p := range points {
		assert.Equal(t, "mp", p.Label)
	}
	assert.Equal(t, 42.0, points[0].Lat)
	assert.Equal(t, -85.0, points[0].Lng)
}

func TestExtract_EmptyInput(t *testing.T) {
	points, err := Extract(nil)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestApproxAreaKm2(t *testing.T) {
	// A 1°×1° box at ~42.5°N is roughly 111 km × 82 km ≈ 9100 km².
	box := orb.Polygon{orb.Ring{{-85, 42}, {-84, 42}, {-84, 43}, {-85, 43}, {-85, 42}}}
	records := []GeometryRecord{{Type: TypePolygon, Polygon: box}}

	area := ApproxAreaKm2(records)
	assert.InDelta(t, 9100, area, 400)

	// Points contribute nothing.
	records = append(records, GeometryRecord{Type: TypePoint, Point: orb.Point{-84, 42}})
	assert.Equal(t, area, ApproxAreaKm2(records))
}
