package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/store"
)

func ptr[T any](v T) *T { return &v }

func TestFindsXLSX(t *testing.T) {
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	project, err := st.CreateProject(ctx, model.Project{Code: "KLT"})
	require.NoError(t, err)
	trench, err := st.CreateTrench(ctx, model.Trench{ProjectID: project.ID, Code: "T1"})
	require.NoError(t, err)
	levelID, err := st.CreateLevel(ctx, "Level II")
	require.NoError(t, err)

	_, err = st.CreateFind(ctx, model.Find{
		TrenchID: trench.ID, Code: "F-001", Description: "bronze fibula",
		FoundAt: "2026-08-12", X: ptr(500005.5), Y: ptr(4100005.5), Z: ptr(1011.8),
		LevelID: &levelID,
	})
	require.NoError(t, err)
	_, err = st.CreateFind(ctx, model.Find{TrenchID: trench.ID, Code: "F-002"})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "finds.xlsx")
	n, err := FindsXLSX(ctx, st, project, out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := xlsx.OpenFile(out)
	require.NoError(t, err)
	sheet, ok := f.Sheet["Finds"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3, "header plus two finds")

	assert.Equal(t, "Find Code", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "F-001", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "T1", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "Level II", sheet.Rows[1].Cells[2].String())

	x, err := sheet.Rows[1].Cells[5].Float()
	require.NoError(t, err)
	assert.InDelta(t, 500005.5, x, 1e-9)

	// Missing coordinates export as blank cells.
	assert.Equal(t, "", sheet.Rows[2].Cells[5].String())
}
