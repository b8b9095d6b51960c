// Package tiles plans, downloads, serves, and registers offline slippy-map
// tile pyramids for a buffered area around an excavation site.
package tiles

import "math"

// BBox is a geographic bounding box in WGS84 degrees.
type BBox struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// BBoxFromCenter buffers a geographic center point by bufferKM in each
// direction using the equirectangular approximation (111 km per degree of
// latitude, scaled by cos(lat) for longitude). This flat-earth shortcut is
// accurate for the intended use, buffers of a few hundred meters to low
// kilometers at mid latitudes; it is not suitable for large areas or
// near-polar sites.
func BBoxFromCenter(lat, lon, bufferKM float64) BBox {
	bufferM := bufferKM * 1000
	dLat := bufferM / 111000
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat == 0 {
		cosLat = 1e-6
	}
	dLon := bufferM / (111000 * cosLat)
	return BBox{
		LatMin: lat - dLat,
		LatMax: lat + dLat,
		LonMin: lon - dLon,
		LonMax: lon + dLon,
	}
}

// Deg2Num returns the slippy-map tile index containing a geographic point
// at the given zoom level. At zoom 0 every valid point maps to (0, 0).
func Deg2Num(lat, lon float64, zoom int) (x, y int) {
	latRad := lat * math.Pi / 180
	n := math.Exp2(float64(zoom))
	x = int((lon + 180) / 360 * n)
	y = int((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)
	return x, y
}
