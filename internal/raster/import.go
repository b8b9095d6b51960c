package raster

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/tiff"
	_ "github.com/google/tiff/geotiff"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	tiffimage "golang.org/x/image/tiff"

	"github.com/arcsys/arcsys-cli/internal/crs"
	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/store"
)

// ProgressFunc reports import progress as (completed, total, message).
// Total is always at least 1.
type ProgressFunc func(completed, total int, message string)

// ImportResult describes a completed GeoTIFF import.
type ImportResult struct {
	LayerID   int64
	LayerName string
	PNGPath   string
	Bounds    *model.LayerBounds
}

// geoTIFFIFD holds the IFD fields needed to georeference a GeoTIFF.
type geoTIFFIFD struct {
	ImageWidth         uint32    `tiff:"field,tag=256"`
	ImageLength        uint32    `tiff:"field,tag=257"`
	ModelPixelScaleTag []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag   []float64 `tiff:"field,tag=33922"`
}

// ImportGeoTIFF converts a GeoTIFF to a PNG with a sidecar .pgw world file
// under <rastersDir>/<projectCode>/ and registers it as an image layer.
// All artifacts are generated before the datastore write, so a failed
// import leaves the database untouched. Unlike compile-time bounds
// derivation, import is user-triggered and raises errors to its caller.
func ImportGeoTIFF(ctx context.Context, st store.Store, project *model.Project, tiffPath, rastersDir, baseDir string, progress ProgressFunc) (*ImportResult, error) {
	const totalSteps = 4
	emit := func(step int, msg string) {
		if progress != nil {
			progress(step, totalSteps, msg)
		}
	}

	emit(0, "Processing GeoTIFF...")

	if project.EPSG == nil {
		return nil, eris.Errorf("raster: project %s has no EPSG code", project.Code)
	}
	if project.Code == "" {
		return nil, eris.New("raster: project has no code")
	}
	tr, err := crs.New(*project.EPSG)
	if err != nil {
		return nil, err
	}

	targetDir := filepath.Join(rastersDir, project.Code)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "raster: create %s", targetDir)
	}

	layerName := strings.TrimSuffix(filepath.Base(tiffPath), filepath.Ext(tiffPath))
	outPNG := filepath.Join(targetDir, layerName+".png")

	emit(1, "Writing PNG and world file...")
	wf, width, height, err := exportPNGAndWorldFile(tiffPath, outPNG)
	if err != nil {
		return nil, err
	}
	if err := wf.Write(SidecarPath(outPNG)); err != nil {
		return nil, err
	}

	emit(2, "Computing corner coordinates...")
	bounds, err := wf.GeographicBounds(tr, width, height)
	if err != nil {
		return nil, err
	}

	emit(3, "Registering orthophoto layer...")
	relPath, err := filepath.Rel(baseDir, outPNG)
	if err != nil {
		relPath = outPNG
	}
	relPath = filepath.ToSlash(relPath)

	layerID, err := st.InsertLayer(ctx, model.MapLayer{
		ProjectID:   project.ID,
		Name:        layerName,
		Kind:        model.LayerKindImage,
		FilePath:    relPath,
		Attribution: "GeoTIFF source raster",
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}

	emit(totalSteps, "GeoTIFF orthophoto imported.")

	zap.L().Info("raster: imported GeoTIFF",
		zap.String("layer", layerName),
		zap.Int64("layer_id", layerID),
		zap.Int("width", width),
		zap.Int("height", height),
	)

	return &ImportResult{
		LayerID:   layerID,
		LayerName: layerName,
		PNGPath:   outPNG,
		Bounds:    bounds,
	}, nil
}

// exportPNGAndWorldFile decodes a GeoTIFF, writes it as PNG, and derives
// the world-file coefficients from the GeoTIFF's pixel scale and tiepoint
// tags. C and F are shifted by half a pixel step to the pixel-center
// convention.
func exportPNGAndWorldFile(tiffPath, outPNG string) (*WorldFile, int, int, error) {
	f, err := os.Open(tiffPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, 0, eris.Wrapf(ErrMissingArtifact, "GeoTIFF %s", tiffPath)
		}
		return nil, 0, 0, eris.Wrapf(err, "raster: open GeoTIFF %s", tiffPath)
	}
	defer f.Close() //nolint:errcheck

	parsed, err := tiff.Parse(f, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, 0, 0, eris.Wrapf(err, "raster: parse GeoTIFF %s", tiffPath)
	}
	if len(parsed.IFDs()) == 0 {
		return nil, 0, 0, eris.Errorf("raster: GeoTIFF %s has no IFD", tiffPath)
	}
	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(parsed.IFDs()[0], &ifd); err != nil {
		return nil, 0, 0, eris.Wrapf(err, "raster: read GeoTIFF tags %s", tiffPath)
	}
	if len(ifd.ModelPixelScaleTag) < 2 || len(ifd.ModelTiepointTag) < 6 {
		return nil, 0, 0, eris.Errorf("raster: GeoTIFF %s has no geotransform tags", tiffPath)
	}

	scaleX := ifd.ModelPixelScaleTag[0]
	scaleY := ifd.ModelPixelScaleTag[1]
	// Tiepoint maps raster point (i, j) to model point (X, Y).
	i, j := ifd.ModelTiepointTag[0], ifd.ModelTiepointTag[1]
	mx, my := ifd.ModelTiepointTag[3], ifd.ModelTiepointTag[4]
	originX := mx - i*scaleX
	originY := my + j*scaleY

	wf := &WorldFile{
		A: scaleX,
		E: -scaleY,
		C: originX + scaleX/2,
		F: originY - scaleY/2,
	}

	// Decode pixels with the image decoder; google/tiff only reads tags.
	if _, err := f.Seek(0, 0); err != nil {
		return nil, 0, 0, eris.Wrap(err, "raster: rewind GeoTIFF")
	}
	img, err := tiffimage.Decode(f)
	if err != nil {
		return nil, 0, 0, eris.Wrapf(err, "raster: decode GeoTIFF %s", tiffPath)
	}

	out, err := os.Create(outPNG)
	if err != nil {
		return nil, 0, 0, eris.Wrapf(err, "raster: create %s", outPNG)
	}
	defer out.Close() //nolint:errcheck
	if err := png.Encode(out, img); err != nil {
		return nil, 0, 0, eris.Wrapf(err, "raster: encode %s", outPNG)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, 0, 0, eris.Errorf("raster: GeoTIFF %s decoded empty", tiffPath)
	}
	return wf, b.Dx(), b.Dy(), nil
}
