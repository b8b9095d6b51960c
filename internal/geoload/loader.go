// Package geoload reads trenches and finds in project-local coordinates
// and maps them to geographic WGS84 positions.
//
// Partial-failure policy: a vertex or find with a null planar coordinate,
// or one the transformer rejects, is skipped without aborting the batch.
// Only a failure to reach the datastore is surfaced, wrapped as
// ErrDataUnavailable for the compiler to absorb.
package geoload

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arcsys/arcsys-cli/internal/crs"
	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/store"
)

// ErrDataUnavailable marks a datastore read failure. Fatal to a compile,
// recoverable by retry.
var ErrDataUnavailable = eris.New("geoload: datastore unavailable")

// Trenches loads a project's trenches with vertices transformed to WGS84,
// preserving the stored order_index ordering exactly. Trenches left with
// no valid vertex after null-skip are excluded entirely, so downstream
// renderers never see a degenerate empty polygon.
func Trenches(ctx context.Context, st store.Store, projectID int64, tr *crs.Transformer) ([]model.GeoTrench, error) {
	trenches, err := st.ListTrenches(ctx, projectID)
	if err != nil {
		return nil, eris.Wrapf(ErrDataUnavailable, "trenches for project %d: %v", projectID, err)
	}

	var out []model.GeoTrench
	for _, t := range trenches {
		var verts []model.GeoVertex
		for _, v := range t.Vertices {
			if v.X == nil || v.Y == nil {
				continue
			}
			lon, lat, err := tr.Apply(*v.X, *v.Y)
			if err != nil {
				zap.L().Debug("geoload: skipping untransformable vertex",
					zap.Int64("trench_id", t.ID),
					zap.Int("order_index", v.OrderIndex),
					zap.Error(err),
				)
				continue
			}
			verts = append(verts, model.GeoVertex{
				Order: v.OrderIndex,
				Lat:   lat,
				Lon:   lon,
				Z:     v.Z,
			})
		}
		if len(verts) == 0 {
			continue
		}
		out = append(out, model.GeoTrench{
			ID:       t.ID,
			Code:     t.Code,
			Name:     t.Name,
			Vertices: verts,
		})
	}
	return out, nil
}

// Finds loads a project's finds transformed to WGS84, ordered by primary
// key. Finds without a planar fix are skipped.
func Finds(ctx context.Context, st store.Store, projectID int64, tr *crs.Transformer) ([]model.GeoFind, error) {
	finds, err := st.ListFinds(ctx, projectID)
	if err != nil {
		return nil, eris.Wrapf(ErrDataUnavailable, "finds for project %d: %v", projectID, err)
	}

	var out []model.GeoFind
	for _, f := range finds {
		if f.X == nil || f.Y == nil {
			continue
		}
		lon, lat, err := tr.Apply(*f.X, *f.Y)
		if err != nil {
			zap.L().Debug("geoload: skipping untransformable find",
				zap.Int64("find_id", f.ID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, model.GeoFind{
			ID:          f.ID,
			TrenchID:    f.TrenchID,
			TrenchCode:  f.TrenchCode,
			TrenchName:  f.TrenchName,
			Code:        f.Code,
			Description: f.Description,
			FoundAt:     f.FoundAt,
			Lat:         lat,
			Lon:         lon,
			Z:           f.Z,
			LevelID:     f.LevelID,
			LevelName:   f.LevelName,
		})
	}
	return out, nil
}
