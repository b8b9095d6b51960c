// Package raster georeferences raster overlays: world-file sidecars, local
// and geographic bounding boxes, and GeoTIFF import.
package raster

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMissingArtifact marks a layer artifact (image, world file, vector
// file) that is absent or unreadable. Compile-time callers drop the layer
// and continue; the compile itself never fails on it.
var ErrMissingArtifact = eris.New("raster: missing artifact")

// WorldFile holds the six affine coefficients mapping pixel space to the
// raster's projected CRS. Following the world-file convention, C and F are
// the center of the top-left pixel, not its corner.
type WorldFile struct {
	A float64 // pixel width (x step per column)
	D float64 // row rotation
	B float64 // column rotation
	E float64 // pixel height (y step per row, negative for north-up)
	C float64 // x of top-left pixel center
	F float64 // y of top-left pixel center
}

// ParseWorldFile reads a world file: at least six newline-separated floats.
func ParseWorldFile(path string) (*WorldFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrMissingArtifact, "world file %s", path)
		}
		return nil, eris.Wrapf(err, "raster: read world file %s", path)
	}

	var vals []float64
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, eris.Wrapf(ErrMissingArtifact, "world file %s: bad coefficient %q", path, line)
		}
		vals = append(vals, v)
	}
	if len(vals) < 6 {
		return nil, eris.Wrapf(ErrMissingArtifact, "world file %s: %d coefficients, need 6", path, len(vals))
	}

	return &WorldFile{A: vals[0], D: vals[1], B: vals[2], E: vals[3], C: vals[4], F: vals[5]}, nil
}

// Write writes the six coefficients in world-file order.
func (w *WorldFile) Write(path string) error {
	var sb strings.Builder
	for _, v := range []float64{w.A, w.D, w.B, w.E, w.C, w.F} {
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return eris.Wrapf(err, "raster: write world file %s", path)
	}
	return nil
}

// SidecarPath returns the world-file path for an image: .pgw for PNG,
// .jgw for JPEG, .pgw otherwise.
func SidecarPath(imagePath string) string {
	ext := strings.ToLower(filepath.Ext(imagePath))
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	switch ext {
	case ".jpg", ".jpeg":
		return base + ".jgw"
	default:
		return base + ".pgw"
	}
}

// LocalBounds is an axis-aligned bounding box in the raster's own CRS.
type LocalBounds struct {
	XMin, YMin, XMax, YMax float64
}

// LocalBounds returns the raster's bounding box in its projected CRS.
// C and F are pixel centers, so the outer edge sits half a pixel step
// beyond them.
func (w *WorldFile) LocalBounds(width, height int) LocalBounds {
	xMin := w.C - w.A/2
	yMax := w.F - w.E/2
	return LocalBounds{
		XMin: xMin,
		YMax: yMax,
		XMax: xMin + float64(width)*w.A,
		YMin: yMax + float64(height)*w.E,
	}
}
