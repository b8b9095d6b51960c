package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/arcsys/arcsys-cli/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for the excavation database.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, p model.Project) (*model.Project, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)

	// Active project setting. ActiveProjectID falls back to the first
	// project row (and persists that choice) when no setting exists yet;
	// it returns ErrNotFound only when the database has no projects at all.
	ActiveProjectID(ctx context.Context) (int64, error)
	SetActiveProject(ctx context.Context, projectID int64) error

	// Trenches and finds (read side of the geo pipeline)
	ListTrenches(ctx context.Context, projectID int64) ([]model.Trench, error)
	ListFinds(ctx context.Context, projectID int64) ([]model.Find, error)

	// Entity writes (seeding and UI forms)
	CreateTrench(ctx context.Context, t model.Trench) (*model.Trench, error)
	CreateFind(ctx context.Context, f model.Find) (*model.Find, error)
	CreateLevel(ctx context.Context, name string) (int64, error)

	// Map layers
	ListActiveLayers(ctx context.Context, projectID int64) ([]model.MapLayer, error)
	InsertLayer(ctx context.Context, l model.MapLayer) (int64, error)
	// UpsertTileLayer registers a tile layer keyed by (project_id, name):
	// re-registering the same name updates the existing row instead of
	// inserting a duplicate.
	UpsertTileLayer(ctx context.Context, projectID int64, name, urlTemplate, attribution string) (int64, error)

	// Import job audit trail
	CreateJob(ctx context.Context, projectID int64, kind model.JobKind) (*model.ImportJob, error)
	FinishJob(ctx context.Context, jobID string, status model.JobStatus, detail string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
