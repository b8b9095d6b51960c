package raster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempWorldFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pgw")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseWorldFile_Valid(t *testing.T) {
	path := writeTempWorldFile(t, "0.05\n0\n0\n-0.05\n512345.5\n4123456.5\n")

	wf, err := ParseWorldFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, wf.A, 1e-12)
	assert.InDelta(t, -0.05, wf.E, 1e-12)
	assert.InDelta(t, 512345.5, wf.C, 1e-12)
	assert.InDelta(t, 4123456.5, wf.F, 1e-12)
	assert.Zero(t, wf.B)
	assert.Zero(t, wf.D)
}

func TestParseWorldFile_Missing(t *testing.T) {
	_, err := ParseWorldFile(filepath.Join(t.TempDir(), "absent.pgw"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingArtifact))
}

func TestParseWorldFile_TooShort(t *testing.T) {
	path := writeTempWorldFile(t, "1\n0\n0\n-1\n")

	_, err := ParseWorldFile(path)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingArtifact))
}

func TestParseWorldFile_Corrupt(t *testing.T) {
	path := writeTempWorldFile(t, "1\n0\nnot-a-number\n-1\n0\n0\n")

	_, err := ParseWorldFile(path)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingArtifact))
}

func TestWorldFile_WriteParseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt.pgw")
	in := &WorldFile{A: 0.1, E: -0.1, C: 500000.05, F: 4100000.95}
	require.NoError(t, in.Write(path))

	out, err := ParseWorldFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, "/x/ortho.pgw", SidecarPath("/x/ortho.png"))
	assert.Equal(t, "/x/ortho.jgw", SidecarPath("/x/ortho.jpg"))
	assert.Equal(t, "/x/ortho.jgw", SidecarPath("/x/ortho.JPEG"))
	assert.Equal(t, "/x/ortho.pgw", SidecarPath("/x/ortho.tif"))
}

// A unit world file (1 unit per pixel, origin pixel centered on 0,0) must
// place a 100x100 raster at x [-0.5, 99.5] and y [-99.5, 0.5]: the edges
// sit half a pixel beyond the outermost pixel centers.
func TestLocalBounds_PixelCenterConvention(t *testing.T) {
	wf := &WorldFile{A: 1, E: -1, C: 0, F: 0}

	lb := wf.LocalBounds(100, 100)
	assert.InDelta(t, -0.5, lb.XMin, 1e-12)
	assert.InDelta(t, 99.5, lb.XMax, 1e-12)
	assert.InDelta(t, -99.5, lb.YMin, 1e-12)
	assert.InDelta(t, 0.5, lb.YMax, 1e-12)
}

func TestLocalBounds_ScaledRaster(t *testing.T) {
	wf := &WorldFile{A: 0.5, E: -0.5, C: 1000.25, F: 2000.75}

	lb := wf.LocalBounds(200, 100)
	assert.InDelta(t, 1000.0, lb.XMin, 1e-12)
	assert.InDelta(t, 1100.0, lb.XMax, 1e-12)
	assert.InDelta(t, 2001.0, lb.YMax, 1e-12)
	assert.InDelta(t, 1951.0, lb.YMin, 1e-12)
}
