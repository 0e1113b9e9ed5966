package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	geom "github.com/twpayne/go-geom"
)

func TestDistanceKM(t *testing.T) {
	// San Francisco to Los Angeles, roughly 560 km.
	sfLA := DistanceKM(37.7749, -122.4194, 34.0522, -118.2437)
	assert.InDelta(t, 559, sfLA, 10)

	// Same point.
	assert.Zero(t, DistanceKM(37.7749, -122.4194, 37.7749, -122.4194))

	// Symmetric.
	assert.InDelta(t,
		DistanceKM(40.7128, -74.0060, 37.7749, -122.4194),
		DistanceKM(37.7749, -122.4194, 40.7128, -74.0060),
		0.0001)
}

func TestHaversineKM_ShortDistance(t *testing.T) {
	// Sutro Tower to downtown San Francisco, a few km.
	d := HaversineKM(
		geom.Coord{-122.4526, 37.7552},
		geom.Coord{-122.4194, 37.7749},
	)
	assert.InDelta(t, 3.6, d, 0.5)
}

func TestPoint(t *testing.T) {
	p := Point(37.7749, -122.4194)
	assert.Equal(t, 4326, p.SRID())
	assert.Equal(t, -122.4194, p.X())
	assert.Equal(t, 37.7749, p.Y())
}
