package model

// LayerKind discriminates the three map layer payloads.
type LayerKind string

const (
	LayerKindTile   LayerKind = "tile"
	LayerKindImage  LayerKind = "image"
	LayerKindVector LayerKind = "vector"
)

// MapLayer is a map_layers row. Exactly one of URLTemplate (tile) and
// FilePath (image, vector) is meaningful for a given kind.
type MapLayer struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Name        string    `json:"name"`
	Kind        LayerKind `json:"kind"`
	FilePath    string    `json:"file_path,omitempty"`
	URLTemplate string    `json:"url_template,omitempty"`
	Attribution string    `json:"attribution,omitempty"`
	IsActive    bool      `json:"is_active"`
}
