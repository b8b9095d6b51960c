package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/arcsys/arcsys-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	code      TEXT UNIQUE,
	name      TEXT,
	epsg_code INTEGER,
	center_x  REAL,
	center_y  REAL,
	center_z  REAL
);

CREATE TABLE IF NOT EXISTS app_settings (
	id                INTEGER PRIMARY KEY CHECK (id = 1),
	active_project_id INTEGER
);

CREATE TABLE IF NOT EXISTS trenches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id  INTEGER NOT NULL REFERENCES projects(id),
	code        TEXT,
	name        TEXT,
	description TEXT
);

CREATE TABLE IF NOT EXISTS trench_vertices (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	trench_id   INTEGER NOT NULL REFERENCES trenches(id),
	order_index INTEGER NOT NULL,
	x           REAL,
	y           REAL,
	z           REAL,
	notes       TEXT
);

CREATE TABLE IF NOT EXISTS levels (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT
);

CREATE TABLE IF NOT EXISTS finds (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	trench_id   INTEGER NOT NULL REFERENCES trenches(id),
	code        TEXT,
	description TEXT,
	found_at    TEXT,
	x           REAL,
	y           REAL,
	z           REAL,
	level_id    INTEGER REFERENCES levels(id)
);

CREATE TABLE IF NOT EXISTS map_layers (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id   INTEGER NOT NULL REFERENCES projects(id),
	name         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	file_path    TEXT,
	url_template TEXT,
	attribution  TEXT,
	is_active    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS import_jobs (
	id         TEXT PRIMARY KEY,
	project_id INTEGER NOT NULL REFERENCES projects(id),
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	detail     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_trenches_project_id ON trenches(project_id);
CREATE INDEX IF NOT EXISTS idx_trench_vertices_trench_id ON trench_vertices(trench_id);
CREATE INDEX IF NOT EXISTS idx_finds_trench_id ON finds(trench_id);
CREATE INDEX IF NOT EXISTS idx_map_layers_project_id ON map_layers(project_id);
CREATE INDEX IF NOT EXISTS idx_map_layers_project_name ON map_layers(project_id, name);
CREATE INDEX IF NOT EXISTS idx_import_jobs_project_id ON import_jobs(project_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Projects

func (s *SQLiteStore) CreateProject(ctx context.Context, p model.Project) (*model.Project, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (code, name, epsg_code, center_x, center_y, center_z) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Code, p.Name, nullInt(p.EPSG), nullFloat(p.CenterX), nullFloat(p.CenterY), nullFloat(p.CenterZ),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert project %s", p.Code)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: project last insert id")
	}
	p.ID = id
	return &p, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, code, name, epsg_code, center_x, center_y, center_z FROM projects WHERE id = ?`,
		id,
	)
	return scanProject(row)
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, epsg_code, center_x, center_y, center_z FROM projects ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) ActiveProjectID(ctx context.Context) (int64, error) {
	var active sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT active_project_id FROM app_settings WHERE id = 1`,
	).Scan(&active)
	if err != nil && err != sql.ErrNoRows {
		return 0, eris.Wrap(err, "sqlite: read active project")
	}
	if active.Valid {
		return active.Int64, nil
	}

	// No setting yet: default to the first project and persist the choice.
	var first int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM projects ORDER BY id LIMIT 1`).Scan(&first)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: first project")
	}
	if err := s.SetActiveProject(ctx, first); err != nil {
		return 0, err
	}
	return first, nil
}

func (s *SQLiteStore) SetActiveProject(ctx context.Context, projectID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_settings (id, active_project_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET active_project_id = excluded.active_project_id`,
		projectID,
	)
	return eris.Wrap(err, "sqlite: set active project")
}

// Trenches and finds

func (s *SQLiteStore) ListTrenches(ctx context.Context, projectID int64) ([]model.Trench, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, code, name, description FROM trenches WHERE project_id = ? ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list trenches")
	}
	defer rows.Close()

	var trenches []model.Trench
	for rows.Next() {
		var t model.Trench
		var code, name, desc sql.NullString
		if err := rows.Scan(&t.ID, &t.ProjectID, &code, &name, &desc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan trench")
		}
		t.Code, t.Name, t.Description = code.String, name.String, desc.String
		trenches = append(trenches, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list trenches iterate")
	}

	for i := range trenches {
		verts, err := s.listVertices(ctx, trenches[i].ID)
		if err != nil {
			return nil, err
		}
		trenches[i].Vertices = verts
	}
	return trenches, nil
}

// listVertices returns a trench's vertices ordered by order_index. The
// ordering encodes polygon ring winding and must not be changed.
func (s *SQLiteStore) listVertices(ctx context.Context, trenchID int64) ([]model.TrenchVertex, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_index, x, y, z, notes FROM trench_vertices WHERE trench_id = ? ORDER BY order_index`,
		trenchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list vertices for trench %d", trenchID)
	}
	defer rows.Close()

	var verts []model.TrenchVertex
	for rows.Next() {
		var v model.TrenchVertex
		var x, y, z sql.NullFloat64
		var notes sql.NullString
		if err := rows.Scan(&v.OrderIndex, &x, &y, &z, &notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan vertex")
		}
		v.X, v.Y, v.Z = floatPtr(x), floatPtr(y), floatPtr(z)
		v.Notes = notes.String
		verts = append(verts, v)
	}
	return verts, eris.Wrap(rows.Err(), "sqlite: list vertices iterate")
}

func (s *SQLiteStore) ListFinds(ctx context.Context, projectID int64) ([]model.Find, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.trench_id, t.code, t.name, f.code, f.description, f.found_at,
		        f.x, f.y, f.z, f.level_id, l.name
		 FROM finds f
		 JOIN trenches t ON f.trench_id = t.id
		 LEFT JOIN levels l ON f.level_id = l.id
		 WHERE t.project_id = ?
		 ORDER BY f.id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list finds")
	}
	defer rows.Close()

	var finds []model.Find
	for rows.Next() {
		var f model.Find
		var tcode, tname, code, desc, foundAt, levelName sql.NullString
		var x, y, z sql.NullFloat64
		var levelID sql.NullInt64
		if err := rows.Scan(&f.ID, &f.TrenchID, &tcode, &tname, &code, &desc, &foundAt,
			&x, &y, &z, &levelID, &levelName); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan find")
		}
		f.TrenchCode, f.TrenchName = tcode.String, tname.String
		f.Code, f.Description, f.FoundAt = code.String, desc.String, foundAt.String
		f.X, f.Y, f.Z = floatPtr(x), floatPtr(y), floatPtr(z)
		f.LevelName = levelName.String
		if levelID.Valid {
			f.LevelID = &levelID.Int64
		}
		finds = append(finds, f)
	}
	return finds, eris.Wrap(rows.Err(), "sqlite: list finds iterate")
}

func (s *SQLiteStore) CreateTrench(ctx context.Context, t model.Trench) (*model.Trench, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin trench tx")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO trenches (project_id, code, name, description) VALUES (?, ?, ?, ?)`,
		t.ProjectID, t.Code, t.Name, t.Description,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert trench %s", t.Code)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: trench last insert id")
	}
	t.ID = id

	for _, v := range t.Vertices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trench_vertices (trench_id, order_index, x, y, z, notes) VALUES (?, ?, ?, ?, ?, ?)`,
			id, v.OrderIndex, nullFloat(v.X), nullFloat(v.Y), nullFloat(v.Z), v.Notes,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert vertex %d for trench %s", v.OrderIndex, t.Code)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit trench")
	}
	return &t, nil
}

func (s *SQLiteStore) CreateFind(ctx context.Context, f model.Find) (*model.Find, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO finds (trench_id, code, description, found_at, x, y, z, level_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.TrenchID, f.Code, f.Description, f.FoundAt,
		nullFloat(f.X), nullFloat(f.Y), nullFloat(f.Z), nullInt64(f.LevelID),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert find %s", f.Code)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find last insert id")
	}
	f.ID = id
	return &f, nil
}

func (s *SQLiteStore) CreateLevel(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO levels (name) VALUES (?)`, name)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert level %s", name)
	}
	id, err := res.LastInsertId()
	return id, eris.Wrap(err, "sqlite: level last insert id")
}

// Map layers

func (s *SQLiteStore) ListActiveLayers(ctx context.Context, projectID int64) ([]model.MapLayer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, kind, file_path, url_template, attribution, is_active
		 FROM map_layers
		 WHERE project_id = ? AND is_active = 1
		 ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list layers")
	}
	defer rows.Close()

	var layers []model.MapLayer
	for rows.Next() {
		var l model.MapLayer
		var filePath, urlTemplate, attribution sql.NullString
		var active int
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Kind, &filePath, &urlTemplate, &attribution, &active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan layer")
		}
		l.FilePath = filePath.String
		l.URLTemplate = urlTemplate.String
		l.Attribution = attribution.String
		l.IsActive = active == 1
		layers = append(layers, l)
	}
	return layers, eris.Wrap(rows.Err(), "sqlite: list layers iterate")
}

func (s *SQLiteStore) InsertLayer(ctx context.Context, l model.MapLayer) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO map_layers (project_id, name, kind, file_path, url_template, attribution, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ProjectID, l.Name, string(l.Kind), nullString(l.FilePath), nullString(l.URLTemplate),
		nullString(l.Attribution), boolInt(l.IsActive),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert %s layer %s", l.Kind, l.Name)
	}
	id, err := res.LastInsertId()
	return id, eris.Wrap(err, "sqlite: layer last insert id")
}

func (s *SQLiteStore) UpsertTileLayer(ctx context.Context, projectID int64, name, urlTemplate, attribution string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM map_layers WHERE project_id = ? AND name = ?`,
		projectID, name,
	).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		res, err := tx.ExecContext(ctx,
			`INSERT INTO map_layers (project_id, name, kind, file_path, url_template, attribution, is_active)
			 VALUES (?, ?, 'tile', NULL, ?, ?, 1)`,
			projectID, name, urlTemplate, attribution,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert tile layer %s", name)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, eris.Wrap(err, "sqlite: tile layer last insert id")
		}
	case err != nil:
		return 0, eris.Wrapf(err, "sqlite: lookup tile layer %s", name)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE map_layers
			 SET kind = 'tile', file_path = NULL, url_template = ?, attribution = ?, is_active = 1
			 WHERE id = ?`,
			urlTemplate, attribution, id,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: update tile layer %s", name)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tile layer upsert")
	}
	return id, nil
}

// Import jobs

func (s *SQLiteStore) CreateJob(ctx context.Context, projectID int64, kind model.JobKind) (*model.ImportJob, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_jobs (id, project_id, kind, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, projectID, string(kind), string(model.JobStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert %s job", kind)
	}

	return &model.ImportJob{
		ID:        id,
		ProjectID: projectID,
		Kind:      kind,
		Status:    model.JobStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishJob(ctx context.Context, jobID string, status model.JobStatus, detail string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE import_jobs SET status = ?, detail = ?, updated_at = ? WHERE id = ?`,
		string(status), detail, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish job %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProject(row scannable) (*model.Project, error) {
	var p model.Project
	var code, name sql.NullString
	var epsg sql.NullInt64
	var cx, cy, cz sql.NullFloat64

	err := row.Scan(&p.ID, &code, &name, &epsg, &cx, &cy, &cz)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan project")
	}

	p.Code, p.Name = code.String, name.String
	if epsg.Valid {
		v := int(epsg.Int64)
		p.EPSG = &v
	}
	p.CenterX, p.CenterY, p.CenterZ = floatPtr(cx), floatPtr(cy), floatPtr(cz)
	return &p, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
