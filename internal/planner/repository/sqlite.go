package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"room-planner/internal/planner/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrNotFound = errors.New("not found")

type Project struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ActiveRoom models.RoomKind `json:"activeRoom"`
	CreatedAt  string          `json:"createdAt"`
}

// RoomRecord сериализованное состояние одной комнаты проекта.
type RoomRecord struct {
	ProjectID string          `json:"projectId"`
	Kind      models.RoomKind `json:"kind"`
	Payload   []byte          `json:"-"`
	UpdatedAt string          `json:"updated_at"`
}

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init применяет встроенные миграции.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ============================================================
// Projects
// ============================================================

func (r *Repository) CreateProject(ctx context.Context, p Project) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO projects (id, name, active_room)
        VALUES (?, ?, ?)
    `, p.ID, p.Name, string(p.ActiveRoom))
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *Repository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, active_room, created_at
        FROM projects
        WHERE id = ?
    `, id)

	var p Project
	var active string
	if err := row.Scan(&p.ID, &p.Name, &active, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	p.ActiveRoom = models.RoomKind(active)
	return &p, nil
}

func (r *Repository) SetActiveRoom(ctx context.Context, id string, kind models.RoomKind) error {
	res, err := r.db.ExecContext(ctx, `UPDATE projects SET active_room = ? WHERE id = ?`, string(kind), id)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

// ============================================================
// Rooms
// ============================================================

// SaveRoom заменяет запись комнаты целиком.
func (r *Repository) SaveRoom(ctx context.Context, projectID string, kind models.RoomKind, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO rooms (project_id, room_kind, payload, updated_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT (project_id, room_kind)
        DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP
    `, projectID, string(kind), string(payload))
	if err != nil {
		return fmt.Errorf("save room %s/%s: %w", projectID, kind, err)
	}
	return nil
}

func (r *Repository) LoadRoom(ctx context.Context, projectID string, kind models.RoomKind) (*RoomRecord, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT project_id, room_kind, payload, updated_at
        FROM rooms
        WHERE project_id = ? AND room_kind = ?
    `, projectID, string(kind))

	var rec RoomRecord
	var roomKind, payload string
	if err := row.Scan(&rec.ProjectID, &roomKind, &payload, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %s/%s: %w", projectID, kind, ErrNotFound)
		}
		return nil, err
	}
	rec.Kind = models.RoomKind(roomKind)
	rec.Payload = []byte(payload)
	return &rec, nil
}

// ListRooms комнаты проекта по алфавиту.
func (r *Repository) ListRooms(ctx context.Context, projectID string) ([]models.RoomKind, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT room_kind FROM rooms WHERE project_id = ? ORDER BY room_kind
    `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	kinds := []models.RoomKind{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		kinds = append(kinds, models.RoomKind(k))
	}
	return kinds, rows.Err()
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for _, e := range entries {
		data, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", e.Name(), err)
		}
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
