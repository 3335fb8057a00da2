// Package ingest reads local geodata files (shapefiles) and converts them to
// the geometry records the extraction pipeline consumes.
package ingest

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	geo "github.com/enviducate/enviducate/internal/geojson"
)

// labelFields are the attribute names checked, in order, for a record label.
var labelFields = []string{"fieldname", "name"}

// ReadShapefile reads a shapefile and returns one geometry record per shape.
// Unsupported shape types (polylines, multipatches) are skipped and counted;
// a nonzero skip count is logged but not an error.
func ReadShapefile(path string) ([]geo.GeometryRecord, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	var records []geo.GeometryRecord
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			skipped++
			continue
		}

		label := recordLabel(reader, fieldIdx)

		switch s := shape.(type) {
		case *shp.Point:
			records = append(records, geo.GeometryRecord{
				Type:  geo.TypePoint,
				Label: label,
				Point: orb.Point{s.X, s.Y},
			})

		case *shp.Polygon:
			mp := polygonToMultiPolygon(s)
			if mp == nil {
				skipped++
				continue
			}
			records = append(records, geo.GeometryRecord{
				Type:         geo.TypeMultiPolygon,
				Label:        label,
				MultiPolygon: mp,
			})

		default:
			skipped++
		}
	}

	if skipped > 0 {
		zap.L().Warn("ingest: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return records, nil
}

// recordLabel returns the first non-empty label attribute for the current
// record, or "Unknown" when none is set.
func recordLabel(reader *shp.Reader, fieldIdx map[string]int) string {
	for _, name := range labelFields {
		idx, ok := fieldIdx[name]
		if !ok {
			continue
		}
		val := strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
		if val != "" {
			return val
		}
	}
	return "Unknown"
}

// polygonToMultiPolygon converts a shapefile Polygon to orb.MultiPolygon.
// Shapefile polygons store all rings in one part list; each part becomes the
// outer ring of its own polygon. Returns nil when every part is degenerate.
func polygonToMultiPolygon(p *shp.Polygon) orb.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var mp orb.MultiPolygon
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		coords := make([]geom.Coord, 0, end-start)
		for j := start; j < end; j++ {
			coords = append(coords, geom.Coord{p.Points[j].X, p.Points[j].Y})
		}
		if len(coords) < 4 {
			zap.L().Debug("ingest: skipping degenerate polygon ring", zap.Int32("part", i))
			continue
		}

		ring := make(orb.Ring, len(coords))
		for k, c := range coords {
			ring[k] = orb.Point{c.X(), c.Y()}
		}
		mp = append(mp, orb.Polygon{ring})
	}

	if len(mp) == 0 {
		return nil
	}
	return mp
}
