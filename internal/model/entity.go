package model

// Trench is an excavation trench with its ordered corner vertices, as stored.
type Trench struct {
	ID          int64          `json:"id"`
	ProjectID   int64          `json:"project_id"`
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Vertices    []TrenchVertex `json:"vertices,omitempty"`
}

// TrenchVertex is one corner of a trench polygon in project-local
// coordinates. OrderIndex defines the ring winding; X or Y may be null for
// rows that were entered without a survey fix.
type TrenchVertex struct {
	OrderIndex int      `json:"order_index"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	Z          *float64 `json:"z,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Find is a single recorded find in project-local coordinates.
type Find struct {
	ID          int64    `json:"id"`
	TrenchID    int64    `json:"trench_id"`
	TrenchCode  string   `json:"trench_code,omitempty"`
	TrenchName  string   `json:"trench_name,omitempty"`
	Code        string   `json:"code"`
	Description string   `json:"description,omitempty"`
	FoundAt     string   `json:"found_at,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Z           *float64 `json:"z,omitempty"`
	LevelID     *int64   `json:"level_id,omitempty"`
	LevelName   string   `json:"level_name,omitempty"`
}
