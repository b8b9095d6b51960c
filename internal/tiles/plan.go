package tiles

import (
	"github.com/rotisserie/eris"
)

// ErrEmptyCoverage marks a tile request that covers no tiles. Nothing to
// fetch is a configuration mistake, not a silent success.
var ErrEmptyCoverage = eris.New("tiles: empty coverage")

// ZoomRange is the inclusive tile index rectangle covering the planned
// bounding box at one zoom level.
type ZoomRange struct {
	Zoom int
	XMin, XMax int
	YMin, YMax int
}

// Count returns the number of tiles in the range.
func (r ZoomRange) Count() int {
	return (r.XMax - r.XMin + 1) * (r.YMax - r.YMin + 1)
}

// Plan is the fixed fetch schedule for one download: the same geographic
// bounding box re-projected into tile indices at every zoom level. The
// z, then x, then y iteration order is deterministic so that progress
// counting and resumption are reproducible across runs.
type Plan struct {
	BBox   BBox
	Ranges []ZoomRange
	Total  int
}

// BuildPlan computes covering tile ranges for each zoom level in the
// inclusive [zoomMin, zoomMax] range.
func BuildPlan(bbox BBox, zoomMin, zoomMax int) (*Plan, error) {
	if zoomMin < 0 {
		return nil, eris.Errorf("tiles: zoom_min %d is negative", zoomMin)
	}
	if zoomMax < zoomMin {
		return nil, eris.Errorf("tiles: zoom_max %d below zoom_min %d", zoomMax, zoomMin)
	}

	plan := &Plan{BBox: bbox}
	for z := zoomMin; z <= zoomMax; z++ {
		x1, y1 := Deg2Num(bbox.LatMax, bbox.LonMin, z)
		x2, y2 := Deg2Num(bbox.LatMin, bbox.LonMax, z)
		r := ZoomRange{
			Zoom: z,
			XMin: min(x1, x2),
			XMax: max(x1, x2),
			YMin: min(y1, y2),
			YMax: max(y1, y2),
		}
		plan.Ranges = append(plan.Ranges, r)
		plan.Total += r.Count()
	}

	if plan.Total == 0 {
		return nil, eris.Wrapf(ErrEmptyCoverage, "zoom %d-%d", zoomMin, zoomMax)
	}
	return plan, nil
}
