package tiles

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arcsys/arcsys-cli/internal/crs"
	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/store"
)

// DefaultLayerName names the registered offline basemap layer when the
// caller does not pick one.
const DefaultLayerName = "OSM Offline"

// DefaultAttribution is the registered attribution string for offline
// basemap copies.
const DefaultAttribution = "© OpenStreetMap contributors (offline copy)"

// DownloadParams are the user-facing parameters of one pyramid download.
type DownloadParams struct {
	BufferKM    float64
	ZoomMin     int
	ZoomMax     int
	LayerName   string
	Attribution string
}

// Download runs the full pyramid pipeline for a project: plan the covering
// tile ranges around the project center, fetch missing tiles into the
// per-project cache, and upsert the tile layer registration. Planning
// errors (missing center, unknown CRS, empty coverage) raise to the
// caller; per-tile fetch errors never do.
func Download(ctx context.Context, st store.Store, project *model.Project, cacheBase string, params DownloadParams, opts Options, progress Progress) (*Stats, error) {
	if params.LayerName == "" {
		params.LayerName = DefaultLayerName
	}
	if params.Attribution == "" {
		params.Attribution = DefaultAttribution
	}

	if project.CenterX == nil || project.CenterY == nil {
		return nil, eris.Errorf("tiles: project %s has no center coordinates", project.Code)
	}
	if project.EPSG == nil {
		return nil, eris.Errorf("tiles: project %s has no EPSG code", project.Code)
	}

	tr, err := crs.New(*project.EPSG)
	if err != nil {
		return nil, err
	}
	centerLon, centerLat, err := tr.Apply(*project.CenterX, *project.CenterY)
	if err != nil {
		return nil, err
	}

	bbox := BBoxFromCenter(centerLat, centerLon, params.BufferKM)
	plan, err := BuildPlan(bbox, params.ZoomMin, params.ZoomMax)
	if err != nil {
		return nil, err
	}

	root := filepath.Join(cacheBase,
		fmt.Sprintf("project_%d", project.ID),
		CacheDirName(params.LayerName, params.ZoomMin, params.ZoomMax),
	)
	opts.CacheRoot = root

	zap.L().Info("tiles: starting pyramid download",
		zap.String("project", project.Code),
		zap.String("layer", params.LayerName),
		zap.Int("zoom_min", params.ZoomMin),
		zap.Int("zoom_max", params.ZoomMax),
		zap.Int("planned", plan.Total),
		zap.String("cache_root", root),
	)

	stats, err := NewFetcher(opts).Fetch(ctx, plan, progress)
	if err != nil {
		return stats, err
	}

	// Same project + same layer name replaces the previous registration.
	if _, err := st.UpsertTileLayer(ctx, project.ID, params.LayerName, LocalTemplate(root), params.Attribution); err != nil {
		return stats, err
	}
	return stats, nil
}
