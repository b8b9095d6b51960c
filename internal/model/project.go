package model

// Project is an excavation project. Coordinates of the project center are
// stored in the project's own CRS, identified by EPSGCode. A project with a
// nil EPSGCode cannot participate in any geospatial operation.
type Project struct {
	ID      int64    `json:"id"`
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	EPSG    *int     `json:"epsg_code,omitempty"`
	CenterX *float64 `json:"center_x,omitempty"`
	CenterY *float64 `json:"center_y,omitempty"`
	CenterZ *float64 `json:"center_z,omitempty"`
}

// ProjectContext identifies the project a command operates on. It replaces
// the implicit process-wide "active project" cache of earlier revisions:
// callers resolve it once (explicit flag or the persisted active-project
// setting) and pass it down.
type ProjectContext struct {
	ProjectID int64 `json:"project_id"`
}
