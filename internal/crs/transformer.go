// Package crs builds forward transformations from a project's survey CRS to
// geographic WGS84 coordinates on top of the PROJ library.
package crs

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-proj/v10"
)

// UnknownCRSError reports an EPSG code that PROJ could not resolve. Any
// geospatial operation for a project with such a code is impossible.
type UnknownCRSError struct {
	EPSG int
	Err  error
}

func (e *UnknownCRSError) Error() string {
	return fmt.Sprintf("crs: unknown EPSG code %d", e.EPSG)
}

func (e *UnknownCRSError) Unwrap() error {
	return e.Err
}

// Transformer converts project-local coordinates (x east, y north in the
// source CRS) to geographic WGS84 longitude/latitude. It holds no per-call
// state and is safe for concurrent use.
type Transformer struct {
	epsg int
	pj   *proj.PJ
}

// Transformer construction compiles a PROJ pipeline, which is expensive
// relative to applying it. Compiles reuse a handful of codes, so built
// transformers are cached per EPSG code.
var transformerCache, _ = lru.New[int, *Transformer](16)

// New returns a forward transformer from the given EPSG code to WGS84.
func New(epsg int) (*Transformer, error) {
	if t, ok := transformerCache.Get(epsg); ok {
		return t, nil
	}

	pj, err := proj.NewCRSToCRS(fmt.Sprintf("epsg:%d", epsg), "epsg:4326", nil)
	if err != nil {
		return nil, &UnknownCRSError{EPSG: epsg, Err: err}
	}

	t := &Transformer{epsg: epsg, pj: pj}
	transformerCache.Add(epsg, t)
	return t, nil
}

// EPSG returns the source EPSG code.
func (t *Transformer) EPSG() int {
	return t.epsg
}

// Apply transforms one point. PROJ returns EPSG:4326 in authority order
// (latitude, longitude); Apply normalizes to (lon, lat).
func (t *Transformer) Apply(x, y float64) (lon, lat float64, err error) {
	out, err := t.pj.Forward(proj.Coord{x, y, 0, 0})
	if err != nil {
		return 0, 0, eris.Wrapf(err, "crs: transform (%f, %f) from EPSG:%d", x, y, t.epsg)
	}
	return out.Y(), out.X(), nil
}

// ApplyMany transforms a batch of (x, y) points in one PROJ call and
// returns (lon, lat) pairs. The input slice is not modified.
func (t *Transformer) ApplyMany(points [][]float64) ([][]float64, error) {
	if len(points) == 0 {
		return nil, nil
	}

	flat := make([]float64, 2*len(points))
	coords := make([][]float64, len(points))
	for i, p := range points {
		copy(flat[2*i:2*i+2], p[:2])
		coords[i] = flat[2*i : 2*i+2]
	}

	if err := t.pj.ForwardFloat64Slices(coords); err != nil {
		return nil, eris.Wrapf(err, "crs: batch transform %d points from EPSG:%d", len(points), t.epsg)
	}

	// lat,lon -> lon,lat
	for _, c := range coords {
		c[0], c[1] = c[1], c[0]
	}
	return coords, nil
}

// Inverse transforms a geographic (lon, lat) point back to the source CRS.
// Used to validate round trips; not part of the compile path.
func (t *Transformer) Inverse(lon, lat float64) (x, y float64, err error) {
	out, err := t.pj.Inverse(proj.Coord{lat, lon, 0, 0})
	if err != nil {
		return 0, 0, eris.Wrapf(err, "crs: inverse transform (%f, %f) to EPSG:%d", lon, lat, t.epsg)
	}
	return out.X(), out.Y(), nil
}
