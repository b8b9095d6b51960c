package tiles

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ServesCachedTile(t *testing.T) {
	root := t.TempDir()
	tileDir := filepath.Join(root, "osm_offline_z14_18", "14", "19500")
	require.NoError(t, os.MkdirAll(tileDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tileDir, "13000.png"), []byte("tile"), 0o644))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/osm_offline_z14_18/14/19500/13000.png", nil)
	NewHandler(root).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "tile", rec.Body.String())
}

func TestHandler_MissingTile(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/layer/14/1/2.png", nil)
	NewHandler(t.TempDir()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RejectsBadPaths(t *testing.T) {
	h := NewHandler(t.TempDir())

	for _, path := range []string{
		"/short",
		"/layer/14/1/2/extra.png",
		"/layer/x/1/2.png",
		"/layer/14/-1/2.png",
		"/Layer%20With%20Spaces/14/1/2.png",
		"/../../etc/14/1/2.png",
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "path %s", path)
	}
}

func TestCacheDirName(t *testing.T) {
	assert.Equal(t, "osm_offline_z14_18", CacheDirName("OSM Offline", 14, 18))
	assert.Equal(t, "kazi_alani_z12_16", CacheDirName("Kazı Alanı", 12, 16))
}
