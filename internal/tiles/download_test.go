package tiles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/store"
)

func ptr[T any](v T) *T { return &v }

func downloadStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestDownload_FetchesPyramidAndRegistersLayer(t *testing.T) {
	ctx := context.Background()
	st := downloadStore(t)

	project, err := st.CreateProject(ctx, model.Project{
		Code: "KLT", EPSG: ptr(32636),
		CenterX: ptr(500000.0), CenterY: ptr(4100000.0),
	})
	require.NoError(t, err)

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte("tile"))
	}))
	t.Cleanup(srv.Close)

	cacheBase := t.TempDir()
	params := DownloadParams{BufferKM: 0.2, ZoomMin: 0, ZoomMax: 1}
	opts := Options{Template: srv.URL + "/{z}/{x}/{y}.png"}

	stats, err := Download(ctx, st, project, cacheBase, params, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, stats.Completed, stats.Fetched)
	assert.EqualValues(t, stats.Fetched, requests.Load())

	root := filepath.Join(cacheBase, "project_1", CacheDirName(DefaultLayerName, 0, 1))
	assert.FileExists(t, filepath.Join(root, "0", "0", "0.png"))

	layers, err := st.ListActiveLayers(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, model.LayerKindTile, layers[0].Kind)
	assert.Equal(t, DefaultLayerName, layers[0].Name)
	assert.Equal(t, LocalTemplate(root), layers[0].URLTemplate)
	assert.Equal(t, DefaultAttribution, layers[0].Attribution)
}

func TestDownload_RerunReplacesRegistrationNotDuplicates(t *testing.T) {
	ctx := context.Background()
	st := downloadStore(t)

	project, err := st.CreateProject(ctx, model.Project{
		Code: "KLT", EPSG: ptr(32636),
		CenterX: ptr(500000.0), CenterY: ptr(4100000.0),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tile"))
	}))
	t.Cleanup(srv.Close)

	cacheBase := t.TempDir()
	params := DownloadParams{BufferKM: 0.2, ZoomMin: 0, ZoomMax: 0}
	opts := Options{Template: srv.URL + "/{z}/{x}/{y}.png"}

	_, err = Download(ctx, st, project, cacheBase, params, opts, nil)
	require.NoError(t, err)
	stats, err := Download(ctx, st, project, cacheBase, params, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, stats.Completed, stats.Cached)

	layers, err := st.ListActiveLayers(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, layers, 1)
}

func TestDownload_RequiresCenterAndCRS(t *testing.T) {
	ctx := context.Background()
	st := downloadStore(t)

	noCenter, err := st.CreateProject(ctx, model.Project{Code: "NC", EPSG: ptr(32636)})
	require.NoError(t, err)
	_, err = Download(ctx, st, noCenter, t.TempDir(), DownloadParams{ZoomMax: 1}, Options{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no center")

	noCRS, err := st.CreateProject(ctx, model.Project{
		Code: "NE", CenterX: ptr(500000.0), CenterY: ptr(4100000.0),
	})
	require.NoError(t, err)
	_, err = Download(ctx, st, noCRS, t.TempDir(), DownloadParams{ZoomMax: 1}, Options{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no EPSG")
}

func TestDownload_UnknownCRSFailsBeforeFetching(t *testing.T) {
	ctx := context.Background()
	st := downloadStore(t)

	project, err := st.CreateProject(ctx, model.Project{
		Code: "BAD", EPSG: ptr(999999),
		CenterX: ptr(500000.0), CenterY: ptr(4100000.0),
	})
	require.NoError(t, err)

	_, err = Download(ctx, st, project, t.TempDir(), DownloadParams{ZoomMax: 1}, Options{}, nil)
	require.Error(t, err)

	layers, err := st.ListActiveLayers(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, layers, "a failed plan must not register a layer")
}

func TestDownload_CanceledKeepsPartialCacheUnregistered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := downloadStore(t)

	project, err := st.CreateProject(context.Background(), model.Project{
		Code: "KLT", EPSG: ptr(32636),
		CenterX: ptr(500000.0), CenterY: ptr(4100000.0),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tile"))
	}))
	t.Cleanup(srv.Close)

	_, err = Download(ctx, st, project, t.TempDir(),
		DownloadParams{BufferKM: 0.2, ZoomMin: 0, ZoomMax: 2},
		Options{Template: srv.URL + "/{z}/{x}/{y}.png"}, nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, context.Canceled))

	layers, err := st.ListActiveLayers(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Empty(t, layers)
}
