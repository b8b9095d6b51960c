package model

// GeoVertex is a trench corner transformed to geographic coordinates.
// Order carries the source order_index so consumers can verify winding.
type GeoVertex struct {
	Order int      `json:"order"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Z     *float64 `json:"z,omitempty"`
}

// GeoTrench is a trench ready for rendering: vertices in WGS84, ordered by
// the stored order_index.
type GeoTrench struct {
	ID       int64       `json:"id"`
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Project  string      `json:"project,omitempty"`
	Vertices []GeoVertex `json:"vertices"`
}

// GeoFind is a find transformed to geographic coordinates.
type GeoFind struct {
	ID          int64    `json:"id"`
	TrenchID    int64    `json:"trench_id"`
	TrenchCode  string   `json:"trench_code,omitempty"`
	TrenchName  string   `json:"trench_name,omitempty"`
	Code        string   `json:"code"`
	Description string   `json:"description,omitempty"`
	FoundAt     string   `json:"found_at,omitempty"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Z           *float64 `json:"z,omitempty"`
	LevelID     *int64   `json:"level_id,omitempty"`
	LevelName   string   `json:"level_name,omitempty"`
}

// LayerBounds is a geographic bounding box for an image overlay.
type LayerBounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BundleLayer is a compiled map layer. Tile layers carry URLTemplate,
// image and vector layers carry FileURL; image layers additionally carry
// the derived Bounds.
type BundleLayer struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Kind        LayerKind    `json:"kind"`
	URLTemplate string       `json:"url_template,omitempty"`
	FileURL     string       `json:"file_url,omitempty"`
	Attribution string       `json:"attribution,omitempty"`
	Bounds      *LayerBounds `json:"bounds,omitempty"`
}

// MapBundle is the compiler's single output value: everything the map
// renderer needs for one project, in geographic coordinates. A failed
// compile yields empty slices and a non-empty Error; the bundle is
// replaced wholesale by the next compile, never patched.
type MapBundle struct {
	Trenches  []GeoTrench   `json:"trenches"`
	Finds     []GeoFind     `json:"finds"`
	Layers    []BundleLayer `json:"layers"`
	CenterLat float64       `json:"center_lat"`
	CenterLon float64       `json:"center_lon"`
	Error     string        `json:"error_message"`
}

// OK reports whether the compile that produced the bundle succeeded.
func (b MapBundle) OK() bool {
	return b.Error == ""
}
