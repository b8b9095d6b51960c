// Package vector imports vector layers (shapefile, GeoJSON) as WGS84
// GeoJSON feature collections and registers them as map layers.
package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/arcsys/arcsys-cli/internal/crs"
	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/slug"
	"github.com/arcsys/arcsys-cli/internal/store"
)

// Result describes a completed vector import.
type Result struct {
	LayerID   int64
	LayerName string
	Path      string
	Features  int
}

// ImportFile converts a vector file to a WGS84 GeoJSON feature collection
// under vectorsDir and registers it as a vector layer. Shapefile
// coordinates are assumed to be in the project's survey CRS and are
// transformed; GeoJSON input is assumed to already be geographic and is
// validated and normalized. The converted file is written before the
// datastore row, so a failed import leaves the database untouched.
func ImportFile(ctx context.Context, st store.Store, project *model.Project, srcPath, vectorsDir, baseDir string) (*Result, error) {
	var fc *geojson.FeatureCollection
	var err error

	switch strings.ToLower(filepath.Ext(srcPath)) {
	case ".geojson", ".json":
		fc, err = readGeoJSON(srcPath)
	case ".shp":
		if project.EPSG == nil {
			return nil, eris.Errorf("vector: project %s has no EPSG code", project.Code)
		}
		var tr *crs.Transformer
		tr, err = crs.New(*project.EPSG)
		if err != nil {
			return nil, err
		}
		fc, err = convertShapefile(srcPath, tr)
	default:
		return nil, eris.Errorf("vector: unsupported format %s", filepath.Ext(srcPath))
	}
	if err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, eris.Errorf("vector: %s contains no usable features", srcPath)
	}

	if err := os.MkdirAll(vectorsDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "vector: create %s", vectorsDir)
	}

	layerName := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	outName := fmt.Sprintf("proj%d_%s.geojson", project.ID, slug.Make(layerName))
	outPath := filepath.Join(vectorsDir, outName)

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "vector: encode feature collection")
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return nil, eris.Wrapf(err, "vector: write %s", outPath)
	}

	relPath, err := filepath.Rel(baseDir, outPath)
	if err != nil {
		relPath = outPath
	}
	relPath = filepath.ToSlash(relPath)

	layerID, err := st.InsertLayer(ctx, model.MapLayer{
		ProjectID: project.ID,
		Name:      layerName,
		Kind:      model.LayerKindVector,
		FilePath:  relPath,
		IsActive:  true,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("vector: imported layer",
		zap.String("layer", layerName),
		zap.Int64("layer_id", layerID),
		zap.Int("features", len(fc.Features)),
	)

	return &Result{
		LayerID:   layerID,
		LayerName: layerName,
		Path:      outPath,
		Features:  len(fc.Features),
	}, nil
}

// readGeoJSON parses an existing GeoJSON file. Files without a CRS are
// treated as WGS84, matching common practice for GeoJSON interchange.
func readGeoJSON(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: read %s", path)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "vector: parse %s", path)
	}
	return &fc, nil
}

// convertShapefile reads a shapefile and transforms every coordinate from
// the project CRS to WGS84. Records with unsupported or nil geometry are
// skipped, not fatal.
func convertShapefile(path string, tr *crs.Transformer) (*geojson.FeatureCollection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldNames := make([]string, len(fields))
	for i, f := range fields {
		fieldNames[i] = strings.TrimRight(f.String(), "\x00")
	}

	fc := &geojson.FeatureCollection{}
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		g, err := shapeToGeom(shape, tr)
		if err != nil || g == nil {
			skipped++
			continue
		}

		props := make(map[string]any, len(fieldNames))
		for i, name := range fieldNames {
			if v := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00")); v != "" {
				props[name] = v
			}
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   g,
			Properties: props,
		})
	}

	if skipped > 0 {
		zap.L().Debug("vector: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return fc, nil
}

// shapeToGeom converts a go-shp geometry into a WGS84 go-geom geometry.
func shapeToGeom(shape shp.Shape, tr *crs.Transformer) (geom.T, error) {
	switch s := shape.(type) {
	case *shp.Point:
		lon, lat, err := tr.Apply(s.X, s.Y)
		if err != nil {
			return nil, err
		}
		return geom.NewPointFlat(geom.XY, []float64{lon, lat}), nil

	case *shp.PolyLine:
		coords, err := transformParts(s.NumParts, s.Parts, s.Points, tr)
		if err != nil {
			return nil, err
		}
		mls := geom.NewMultiLineString(geom.XY)
		for _, part := range coords {
			if err := mls.Push(geom.NewLineStringFlat(geom.XY, part)); err != nil {
				return nil, eris.Wrap(err, "vector: build linestring")
			}
		}
		return mls, nil

	case *shp.Polygon:
		coords, err := transformParts(s.NumParts, s.Parts, s.Points, tr)
		if err != nil {
			return nil, err
		}
		poly := geom.NewPolygon(geom.XY)
		for _, ring := range coords {
			if err := poly.Push(geom.NewLinearRingFlat(geom.XY, ring)); err != nil {
				return nil, eris.Wrap(err, "vector: build ring")
			}
		}
		return poly, nil

	default:
		return nil, nil
	}
}

// transformParts transforms a parted shapefile point list, returning one
// flat lon/lat coordinate slice per part.
func transformParts(numParts int32, parts []int32, points []shp.Point, tr *crs.Transformer) ([][]float64, error) {
	if numParts == 0 || len(points) == 0 {
		return nil, eris.New("vector: empty geometry")
	}

	in := make([][]float64, len(points))
	for i, p := range points {
		in[i] = []float64{p.X, p.Y}
	}
	out, err := tr.ApplyMany(in)
	if err != nil {
		return nil, err
	}

	var result [][]float64
	for i := int32(0); i < numParts; i++ {
		start := parts[i]
		end := int32(len(points))
		if i+1 < numParts {
			end = parts[i+1]
		}
		flat := make([]float64, 0, 2*(end-start))
		for _, c := range out[start:end] {
			flat = append(flat, c[0], c[1])
		}
		result = append(result, flat)
	}
	return result, nil
}
