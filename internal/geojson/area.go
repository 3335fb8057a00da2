package geojson

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geom"
)

// earth radius in km, spherical approximation.
const earthRadiusKm = 6371.0

// ApproxAreaKm2 returns the summed approximate area of all polygonal records
// in square kilometers. Planar area in degrees is scaled by the metric size of
// a degree at the geometry's mean latitude; good enough for the state-scale
// regions this pipeline handles.
func ApproxAreaKm2(records []GeometryRecord) float64 {
	var total float64
	for _, rec := range records {
		switch rec.Type {
		case TypePolygon:
			total += polygonAreaKm2(rec.Polygon)
		case TypeMultiPolygon:
			for _, poly := range rec.MultiPolygon {
				total += polygonAreaKm2(poly)
			}
		}
	}
	return total
}

func polygonAreaKm2(poly orb.Polygon) float64 {
	if len(poly) == 0 || len(poly[0]) < 4 {
		return 0
	}

	g := geom.NewPolygon(geom.XY)
	for _, ring := range poly {
		coords := make([]geom.Coord, len(ring))
		for i, pt := range ring {
			coords[i] = geom.Coord{pt[0], pt[1]}
		}
		if err := g.Push(geom.NewLinearRing(geom.XY).MustSetCoords(coords)); err != nil {
			return 0
		}
	}

	// Degrees² → km² at the outer ring's mean latitude.
	var latSum float64
	for _, pt := range poly[0] {
		latSum += pt[1]
	}
	meanLat := latSum / float64(len(poly[0]))

	degLat := earthRadiusKm * math.Pi / 180
	degLng := degLat * math.Cos(meanLat*math.Pi/180)
	return math.Abs(g.Area()) * degLat * degLng
}
