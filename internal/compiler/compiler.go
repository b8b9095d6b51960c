// Package compiler assembles a project's map bundle: trenches, finds and
// layers in geographic coordinates, ready for rendering.
//
// Compile never returns an error. A fatal condition (missing project,
// missing CRS, unreachable datastore) yields an empty bundle carrying the
// failure in Error, so consumers always render something sensible. A
// broken individual layer is dropped from the bundle without failing the
// compile.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arcsys/arcsys-cli/internal/crs"
	"github.com/arcsys/arcsys-cli/internal/geoload"
	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/raster"
	"github.com/arcsys/arcsys-cli/internal/store"
)

// Fallback map center used when a project has neither trench vertices nor
// located finds. Central Anatolia, where most supported excavations are.
const (
	FallbackCenterLat = 37.0
	FallbackCenterLon = 32.0
)

// Compiler compiles map bundles against a datastore. BaseDir anchors the
// relative artifact paths stored in map_layers rows.
type Compiler struct {
	Store   store.Store
	BaseDir string
}

// Compile builds the map bundle for the project named by pctx. It always
// returns a renderable bundle; inspect Error (or OK) for compile failures.
func (c *Compiler) Compile(ctx context.Context, pctx model.ProjectContext) model.MapBundle {
	project, err := c.Store.GetProject(ctx, pctx.ProjectID)
	if err != nil {
		return failed("project %d could not be loaded: %v", pctx.ProjectID, err)
	}
	if project.EPSG == nil {
		return failed("project %s has no coordinate system configured", project.Code)
	}

	tr, err := crs.New(*project.EPSG)
	if err != nil {
		return failed("coordinate system EPSG:%d could not be initialized: %v", *project.EPSG, err)
	}

	trenches, err := geoload.Trenches(ctx, c.Store, project.ID, tr)
	if err != nil {
		return failed("trench data unavailable: %v", err)
	}
	finds, err := geoload.Finds(ctx, c.Store, project.ID, tr)
	if err != nil {
		return failed("find data unavailable: %v", err)
	}

	bundle := model.MapBundle{
		Trenches: trenches,
		Finds:    finds,
	}
	bundle.CenterLat, bundle.CenterLon = center(trenches, finds)
	bundle.Layers = c.compileLayers(ctx, project, tr)

	zap.L().Info("compiler: bundle compiled",
		zap.String("project", project.Code),
		zap.Int("trenches", len(trenches)),
		zap.Int("finds", len(finds)),
		zap.Int("layers", len(bundle.Layers)),
	)
	return bundle
}

// center picks the bundle's map center: the first vertex of the first
// trench, else the first find, else the fallback.
func center(trenches []model.GeoTrench, finds []model.GeoFind) (lat, lon float64) {
	if len(trenches) > 0 && len(trenches[0].Vertices) > 0 {
		v := trenches[0].Vertices[0]
		return v.Lat, v.Lon
	}
	if len(finds) > 0 {
		return finds[0].Lat, finds[0].Lon
	}
	return FallbackCenterLat, FallbackCenterLon
}

// compileLayers resolves every active layer row into a bundle layer. A
// layer that cannot be resolved (missing artifact, unreadable image, bad
// world file) is logged and dropped; the rest of the bundle is unaffected.
// A datastore failure here degrades to an empty layer list rather than
// failing the compile, since entities alone still make a usable map.
func (c *Compiler) compileLayers(ctx context.Context, project *model.Project, tr *crs.Transformer) []model.BundleLayer {
	rows, err := c.Store.ListActiveLayers(ctx, project.ID)
	if err != nil {
		zap.L().Warn("compiler: layer list unavailable, compiling without layers",
			zap.String("project", project.Code),
			zap.Error(err),
		)
		return nil
	}

	var out []model.BundleLayer
	for _, row := range rows {
		layer, err := c.resolveLayer(row, tr)
		if err != nil {
			zap.L().Warn("compiler: dropping unusable layer",
				zap.String("project", project.Code),
				zap.String("layer", row.Name),
				zap.String("kind", string(row.Kind)),
				zap.Error(err),
			)
			continue
		}
		out = append(out, *layer)
	}
	return out
}

func (c *Compiler) resolveLayer(row model.MapLayer, tr *crs.Transformer) (*model.BundleLayer, error) {
	layer := &model.BundleLayer{
		ID:          row.ID,
		Name:        row.Name,
		Kind:        row.Kind,
		Attribution: row.Attribution,
	}

	switch row.Kind {
	case model.LayerKindTile:
		if row.URLTemplate == "" {
			return nil, eris.New("tile layer has no URL template")
		}
		layer.URLTemplate = row.URLTemplate

	case model.LayerKindImage:
		path := c.artifactPath(row.FilePath)
		bounds, err := raster.DeriveBounds(path, tr)
		if err != nil {
			return nil, err
		}
		layer.FileURL = fileURL(path)
		layer.Bounds = bounds

	case model.LayerKindVector:
		path := c.artifactPath(row.FilePath)
		if _, err := os.Stat(path); err != nil {
			return nil, eris.Wrapf(raster.ErrMissingArtifact, "vector file %s", path)
		}
		layer.FileURL = fileURL(path)

	default:
		return nil, eris.Errorf("unknown layer kind %q", row.Kind)
	}
	return layer, nil
}

// artifactPath resolves a stored layer path against the data directory.
// Absolute paths pass through for layers imported before path relativization.
func (c *Compiler) artifactPath(stored string) string {
	if filepath.IsAbs(stored) {
		return stored
	}
	return filepath.Join(c.BaseDir, filepath.FromSlash(stored))
}

func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func failed(format string, args ...any) model.MapBundle {
	msg := fmt.Sprintf(format, args...)
	zap.L().Warn("compiler: compile failed", zap.String("reason", msg))
	return model.MapBundle{Error: msg}
}
