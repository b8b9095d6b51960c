package raster

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcsys/arcsys-cli/internal/crs"
)

func writeTempPNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	path := filepath.Join(dir, "ortho.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))))
	return path
}

func TestImageSize(t *testing.T) {
	path := writeTempPNG(t, t.TempDir(), 12, 7)

	w, h, err := ImageSize(path)
	require.NoError(t, err)
	assert.Equal(t, 12, w)
	assert.Equal(t, 7, h)
}

func TestImageSize_Missing(t *testing.T) {
	_, _, err := ImageSize(filepath.Join(t.TempDir(), "absent.png"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingArtifact))
}

func TestImageSize_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	_, _, err := ImageSize(path)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingArtifact))
}

func TestGeographicBounds_ContainsRasterCenter(t *testing.T) {
	tr, err := crs.New(32636)
	require.NoError(t, err)

	// 100x100 m raster centered on the UTM 36N central meridian.
	wf := &WorldFile{A: 1, E: -1, C: 499950.5, F: 4100049.5}

	bounds, err := wf.GeographicBounds(tr, 100, 100)
	require.NoError(t, err)

	assert.Less(t, bounds.MinLat, bounds.MaxLat)
	assert.Less(t, bounds.MinLon, bounds.MaxLon)

	centerLon, centerLat, err := tr.Apply(500000, 4100000)
	require.NoError(t, err)
	assert.Greater(t, centerLon, bounds.MinLon)
	assert.Less(t, centerLon, bounds.MaxLon)
	assert.Greater(t, centerLat, bounds.MinLat)
	assert.Less(t, centerLat, bounds.MaxLat)

	// 100 m is about a thousandth of a degree; the box must stay tight.
	assert.Less(t, bounds.MaxLat-bounds.MinLat, 0.01)
	assert.Less(t, bounds.MaxLon-bounds.MinLon, 0.01)
}

func TestDeriveBounds(t *testing.T) {
	tr, err := crs.New(32636)
	require.NoError(t, err)

	dir := t.TempDir()
	imgPath := writeTempPNG(t, dir, 50, 40)
	wf := &WorldFile{A: 1, E: -1, C: 500000.5, F: 4100000.5}
	require.NoError(t, wf.Write(SidecarPath(imgPath)))

	bounds, err := DeriveBounds(imgPath, tr)
	require.NoError(t, err)
	assert.Less(t, bounds.MinLat, bounds.MaxLat)
	assert.Less(t, bounds.MinLon, bounds.MaxLon)
}

func TestDeriveBounds_MissingWorldFile(t *testing.T) {
	tr, err := crs.New(32636)
	require.NoError(t, err)

	imgPath := writeTempPNG(t, t.TempDir(), 10, 10)

	_, err = DeriveBounds(imgPath, tr)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingArtifact))
}
