package geoload

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcsys/arcsys-cli/internal/crs"
	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/store"
)

func ptr[T any](v T) *T { return &v }

func setup(t *testing.T) (*store.SQLiteStore, *model.Project, *crs.Transformer) {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	project, err := st.CreateProject(ctx, model.Project{Code: "KLT", EPSG: ptr(32636)})
	require.NoError(t, err)

	tr, err := crs.New(32636)
	require.NoError(t, err)
	return st, project, tr
}

func TestTrenches_OrderPreservedAndTransformed(t *testing.T) {
	st, project, tr := setup(t)
	ctx := context.Background()

	_, err := st.CreateTrench(ctx, model.Trench{
		ProjectID: project.ID,
		Code:      "T1",
		Vertices: []model.TrenchVertex{
			{OrderIndex: 0, X: ptr(500000.0), Y: ptr(4100000.0), Z: ptr(1012.3)},
			{OrderIndex: 1, X: ptr(500010.0), Y: ptr(4100000.0)},
			{OrderIndex: 2, X: ptr(500010.0), Y: ptr(4100010.0)},
			{OrderIndex: 3, X: ptr(500000.0), Y: ptr(4100010.0)},
		},
	})
	require.NoError(t, err)

	trenches, err := Trenches(ctx, st, project.ID, tr)
	require.NoError(t, err)
	require.Len(t, trenches, 1)
	require.Len(t, trenches[0].Vertices, 4)

	for i, v := range trenches[0].Vertices {
		assert.Equal(t, i, v.Order)
		assert.InDelta(t, 37.0, v.Lat, 1.0)
		assert.InDelta(t, 33.0, v.Lon, 0.1)
	}

	// Elevation passes through untouched.
	require.NotNil(t, trenches[0].Vertices[0].Z)
	assert.InDelta(t, 1012.3, *trenches[0].Vertices[0].Z, 1e-9)
	assert.Nil(t, trenches[0].Vertices[1].Z)

	// Eastward vertex 1 sits east of vertex 0.
	assert.Greater(t, trenches[0].Vertices[1].Lon, trenches[0].Vertices[0].Lon)
}

func TestTrenches_NullVerticesSkippedOthersKept(t *testing.T) {
	st, project, tr := setup(t)
	ctx := context.Background()

	_, err := st.CreateTrench(ctx, model.Trench{
		ProjectID: project.ID,
		Code:      "T1",
		Vertices: []model.TrenchVertex{
			{OrderIndex: 0, X: ptr(500000.0), Y: ptr(4100000.0)},
			{OrderIndex: 1, X: ptr(500010.0)}, // no survey fix for Y
			{OrderIndex: 2, X: ptr(500010.0), Y: ptr(4100010.0)},
			{OrderIndex: 3, X: ptr(500000.0), Y: ptr(4100010.0)},
		},
	})
	require.NoError(t, err)

	trenches, err := Trenches(ctx, st, project.ID, tr)
	require.NoError(t, err)
	require.Len(t, trenches, 1)
	require.Len(t, trenches[0].Vertices, 3)
	assert.Equal(t, []int{0, 2, 3}, []int{
		trenches[0].Vertices[0].Order,
		trenches[0].Vertices[1].Order,
		trenches[0].Vertices[2].Order,
	})
}

func TestTrenches_EmptyTrenchExcluded(t *testing.T) {
	st, project, tr := setup(t)
	ctx := context.Background()

	_, err := st.CreateTrench(ctx, model.Trench{
		ProjectID: project.ID,
		Code:      "UNSURVEYED",
		Vertices: []model.TrenchVertex{
			{OrderIndex: 0}, {OrderIndex: 1},
		},
	})
	require.NoError(t, err)
	_, err = st.CreateTrench(ctx, model.Trench{
		ProjectID: project.ID,
		Code:      "T1",
		Vertices: []model.TrenchVertex{
			{OrderIndex: 0, X: ptr(500000.0), Y: ptr(4100000.0)},
		},
	})
	require.NoError(t, err)

	trenches, err := Trenches(ctx, st, project.ID, tr)
	require.NoError(t, err)
	require.Len(t, trenches, 1)
	assert.Equal(t, "T1", trenches[0].Code)
}

func TestFinds_NullCoordinatesSkipped(t *testing.T) {
	st, project, tr := setup(t)
	ctx := context.Background()

	trench, err := st.CreateTrench(ctx, model.Trench{ProjectID: project.ID, Code: "T1"})
	require.NoError(t, err)

	_, err = st.CreateFind(ctx, model.Find{
		TrenchID: trench.ID, Code: "F-001",
		X: ptr(500005.0), Y: ptr(4100005.0), Z: ptr(1011.8),
	})
	require.NoError(t, err)
	_, err = st.CreateFind(ctx, model.Find{TrenchID: trench.ID, Code: "F-002", X: ptr(500005.0)})
	require.NoError(t, err)

	finds, err := Finds(ctx, st, project.ID, tr)
	require.NoError(t, err)
	require.Len(t, finds, 1)
	assert.Equal(t, "F-001", finds[0].Code)
	assert.Equal(t, "T1", finds[0].TrenchCode)
	assert.InDelta(t, 33.0, finds[0].Lon, 0.1)
	require.NotNil(t, finds[0].Z)
	assert.InDelta(t, 1011.8, *finds[0].Z, 1e-9)
}

func TestLoad_StoreFailureIsDataUnavailable(t *testing.T) {
	st, project, tr := setup(t)

	// A closed store is the simplest unreachable datastore.
	require.NoError(t, st.Close())

	_, err := Trenches(context.Background(), st, project.ID, tr)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDataUnavailable))

	_, err = Finds(context.Background(), st, project.ID, tr)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDataUnavailable))
}
