// Package geo provides great-circle distance math for nearest-station
// queries.
package geo

import (
	"math"

	geom "github.com/twpayne/go-geom"
)

const earthRadiusKM = 6371.0

// Point builds a lon/lat WGS84 point.
func Point(lat, lon float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326)
}

// HaversineKM returns the great-circle distance in kilometers between two
// lon/lat coordinates.
func HaversineKM(a, b geom.Coord) float64 {
	lat1 := a[1] * math.Pi / 180
	lat2 := b[1] * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b[0] - a[0]) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

// DistanceKM returns the great-circle distance in kilometers between two
// lat/lon pairs.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineKM(geom.Coord{lon1, lat1}, geom.Coord{lon2, lat2})
}
