package tiles

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeg2Num_ZoomZero(t *testing.T) {
	for _, p := range [][2]float64{
		{0, 0},
		{37.0, 32.0},
		{-45.0, -120.0},
		{66.5, 179.9},
	} {
		x, y := Deg2Num(p[0], p[1], 0)
		assert.Equal(t, 0, x)
		assert.Equal(t, 0, y)
	}
}

func TestDeg2Num_OriginAtZoomOne(t *testing.T) {
	// The prime meridian/equator point falls in the south-east quadrant.
	x, y := Deg2Num(0, 0, 1)
	assert.Equal(t, 1, x)
	assert.Equal(t, 1, y)

	x, y = Deg2Num(40, -10, 1)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}

func TestDeg2Num_Monotonic(t *testing.T) {
	const zoom = 14

	x1, y1 := Deg2Num(37.0, 32.0, zoom)
	x2, _ := Deg2Num(37.0, 32.5, zoom)
	_, y2 := Deg2Num(36.5, 32.0, zoom)

	assert.Greater(t, x2, x1, "longitude east should increase x")
	assert.Greater(t, y2, y1, "latitude south should increase y")
}

func TestBBoxFromCenter_KnownDeltas(t *testing.T) {
	// 1.11 km buffer is exactly 0.01 degrees of latitude under the
	// 111 km/degree approximation.
	bbox := BBoxFromCenter(37.0, 32.0, 1.11)

	assert.InDelta(t, 0.01, bbox.LatMax-37.0, 1e-9)
	assert.InDelta(t, 0.01, 37.0-bbox.LatMin, 1e-9)

	wantDLon := 0.01 / math.Cos(37.0*math.Pi/180)
	assert.InDelta(t, wantDLon, bbox.LonMax-32.0, 1e-9)
	assert.InDelta(t, wantDLon, 32.0-bbox.LonMin, 1e-9)
}

func TestBBoxFromCenter_LongitudeWiderThanLatitude(t *testing.T) {
	bbox := BBoxFromCenter(60.0, 10.0, 1.0)
	assert.Greater(t, bbox.LonMax-bbox.LonMin, bbox.LatMax-bbox.LatMin)
}

func TestBBoxFromCenter_PoleGuard(t *testing.T) {
	bbox := BBoxFromCenter(90.0, 0.0, 1.0)
	assert.False(t, math.IsInf(bbox.LonMax, 0))
	assert.False(t, math.IsNaN(bbox.LonMax))
}
