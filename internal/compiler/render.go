package compiler

import (
	_ "embed"
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/arcsys/arcsys-cli/internal/model"
)

//go:embed map.html.tmpl
var mapTemplate string

// TrenchFeatures converts the bundle's trenches to a GeoJSON feature
// collection of polygons. Vertex order is preserved as stored; the ring is
// closed by repeating the first vertex when the source did not. Trenches
// with fewer than three vertices are emitted as points or linestrings so
// they stay visible on the map.
func TrenchFeatures(b model.MapBundle) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{}
	for _, t := range b.Trenches {
		g, err := trenchGeometry(t)
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       t.Code,
			Geometry: g,
			Properties: map[string]any{
				"code": t.Code,
				"name": t.Name,
			},
		})
	}
	return fc, nil
}

func trenchGeometry(t model.GeoTrench) (geom.T, error) {
	flat := make([]float64, 0, 2*(len(t.Vertices)+1))
	for _, v := range t.Vertices {
		flat = append(flat, v.Lon, v.Lat)
	}

	switch len(t.Vertices) {
	case 1:
		return geom.NewPointFlat(geom.XY, flat), nil
	case 2:
		return geom.NewLineStringFlat(geom.XY, flat), nil
	}

	first := t.Vertices[0]
	last := t.Vertices[len(t.Vertices)-1]
	if first.Lat != last.Lat || first.Lon != last.Lon {
		flat = append(flat, first.Lon, first.Lat)
	}
	poly := geom.NewPolygon(geom.XY)
	if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
		return nil, eris.Wrapf(err, "compiler: trench %s ring", t.Code)
	}
	return poly, nil
}

// FindFeatures converts the bundle's finds to a GeoJSON feature collection
// of points.
func FindFeatures(b model.MapBundle) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{}
	for _, f := range b.Finds {
		props := map[string]any{
			"code":   f.Code,
			"trench": f.TrenchCode,
		}
		if f.Description != "" {
			props["description"] = f.Description
		}
		if f.LevelName != "" {
			props["level"] = f.LevelName
		}
		if f.FoundAt != "" {
			props["found_at"] = f.FoundAt
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         f.Code,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{f.Lon, f.Lat}),
			Properties: props,
		})
	}
	return fc, nil
}

// RenderHTML writes a self-contained Leaflet map page for the bundle. A
// failed bundle still renders, with the error message shown in place of
// map content.
func RenderHTML(b model.MapBundle, outPath string) error {
	trenches, err := TrenchFeatures(b)
	if err != nil {
		return err
	}
	finds, err := FindFeatures(b)
	if err != nil {
		return err
	}

	trenchJSON, err := json.Marshal(trenches)
	if err != nil {
		return eris.Wrap(err, "compiler: encode trench features")
	}
	findJSON, err := json.Marshal(finds)
	if err != nil {
		return eris.Wrap(err, "compiler: encode find features")
	}
	layerJSON, err := json.Marshal(b.Layers)
	if err != nil {
		return eris.Wrap(err, "compiler: encode layers")
	}

	centerJSON, _ := json.Marshal([]float64{b.CenterLat, b.CenterLon})
	errJSON, _ := json.Marshal(b.Error)

	page := strings.NewReplacer(
		"__TRENCHES__", string(trenchJSON),
		"__FINDS__", string(findJSON),
		"__LAYERS__", string(layerJSON),
		"__CENTER__", string(centerJSON),
		"__ERROR__", string(errJSON),
	).Replace(mapTemplate)

	if err := os.WriteFile(outPath, []byte(page), 0o644); err != nil {
		return eris.Wrapf(err, "compiler: write %s", outPath)
	}
	return nil
}
