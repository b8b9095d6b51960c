package raster

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rotisserie/eris"

	"github.com/arcsys/arcsys-cli/internal/crs"
	"github.com/arcsys/arcsys-cli/internal/model"
)

// ImageSize reads the pixel dimensions of a PNG or JPEG without decoding
// the pixel data.
func ImageSize(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, eris.Wrapf(ErrMissingArtifact, "image %s", path)
		}
		return 0, 0, eris.Wrapf(err, "raster: open image %s", path)
	}
	defer f.Close() //nolint:errcheck

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, eris.Wrapf(ErrMissingArtifact, "image %s: %v", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// GeographicBounds transforms all four raster corners to WGS84 and takes
// the min/max of the results. Using all four corners keeps the box correct
// for rotated or otherwise non-axis-aligned affine transforms, where two
// opposite corners are not enough.
func (w *WorldFile) GeographicBounds(tr *crs.Transformer, width, height int) (*model.LayerBounds, error) {
	lb := w.LocalBounds(width, height)

	corners, err := tr.ApplyMany([][]float64{
		{lb.XMin, lb.YMin},
		{lb.XMin, lb.YMax},
		{lb.XMax, lb.YMin},
		{lb.XMax, lb.YMax},
	})
	if err != nil {
		return nil, err
	}

	b := &model.LayerBounds{
		MinLon: corners[0][0], MaxLon: corners[0][0],
		MinLat: corners[0][1], MaxLat: corners[0][1],
	}
	for _, c := range corners[1:] {
		b.MinLon = min(b.MinLon, c[0])
		b.MaxLon = max(b.MaxLon, c[0])
		b.MinLat = min(b.MinLat, c[1])
		b.MaxLat = max(b.MaxLat, c[1])
	}
	return b, nil
}

// DeriveBounds computes the geographic bounding box for an already
// imported image layer from its pixel dimensions and sidecar world file.
func DeriveBounds(imagePath string, tr *crs.Transformer) (*model.LayerBounds, error) {
	width, height, err := ImageSize(imagePath)
	if err != nil {
		return nil, err
	}
	wf, err := ParseWorldFile(SidecarPath(imagePath))
	if err != nil {
		return nil, err
	}
	return wf.GeographicBounds(tr, width, height)
}
