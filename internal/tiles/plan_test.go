package tiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteBBox() BBox {
	return BBoxFromCenter(37.0, 32.0, 1.0)
}

func TestBuildPlan_CoversEveryZoomLevel(t *testing.T) {
	plan, err := BuildPlan(siteBBox(), 14, 16)
	require.NoError(t, err)

	require.Len(t, plan.Ranges, 3)
	total := 0
	for i, r := range plan.Ranges {
		assert.Equal(t, 14+i, r.Zoom)
		assert.LessOrEqual(t, r.XMin, r.XMax)
		assert.LessOrEqual(t, r.YMin, r.YMax)
		assert.GreaterOrEqual(t, r.Count(), 1)
		total += r.Count()
	}
	assert.Equal(t, total, plan.Total)

	// Each zoom level quadruples the tile grid, so the covering range can
	// only grow with zoom.
	for i := 1; i < len(plan.Ranges); i++ {
		assert.GreaterOrEqual(t, plan.Ranges[i].Count(), plan.Ranges[i-1].Count())
	}
}

func TestBuildPlan_SingleZoom(t *testing.T) {
	plan, err := BuildPlan(siteBBox(), 0, 0)
	require.NoError(t, err)
	require.Len(t, plan.Ranges, 1)
	assert.Equal(t, 1, plan.Total)
	assert.Equal(t, 0, plan.Ranges[0].XMin)
	assert.Equal(t, 0, plan.Ranges[0].YMin)
}

func TestBuildPlan_Deterministic(t *testing.T) {
	a, err := BuildPlan(siteBBox(), 14, 17)
	require.NoError(t, err)
	b, err := BuildPlan(siteBBox(), 14, 17)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildPlan_NegativeZoom(t *testing.T) {
	_, err := BuildPlan(siteBBox(), -1, 5)
	require.Error(t, err)
}

func TestBuildPlan_InvertedZoomRange(t *testing.T) {
	_, err := BuildPlan(siteBBox(), 16, 14)
	require.Error(t, err)
}
