package model

import "time"

// JobStatus is the lifecycle state of an import job.
type JobStatus string

const (
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
)

// JobKind identifies what an import job ingested.
type JobKind string

const (
	JobKindRaster JobKind = "raster"
	JobKindVector JobKind = "vector"
	JobKindTiles  JobKind = "tiles"
)

// ImportJob is an audit record for a user-triggered ingestion: raster or
// vector import, or a tile pyramid download. Detail holds a short
// human-readable outcome (layer name, tile counts, or the failure reason).
type ImportJob struct {
	ID        string    `json:"id"`
	ProjectID int64     `json:"project_id"`
	Kind      JobKind   `json:"kind"`
	Status    JobStatus `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
