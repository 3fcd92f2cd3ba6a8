package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"room-planner/internal/common/logutil"
	"room-planner/internal/common/telemetry"
	"room-planner/internal/planner/catalog"
	"room-planner/internal/planner/interaction"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/persist"
	"room-planner/internal/planner/placement"
	"room-planner/internal/planner/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrUnknownProject = errors.New("unknown project")
	ErrUnknownRoom    = errors.New("unknown room kind")
)

// Store хранилище записей комнат.
type Store interface {
	CreateProject(ctx context.Context, p repository.Project) error
	GetProject(ctx context.Context, id string) (*repository.Project, error)
	SetActiveRoom(ctx context.Context, id string, kind models.RoomKind) error
	SaveRoom(ctx context.Context, projectID string, kind models.RoomKind, payload []byte) error
	LoadRoom(ctx context.Context, projectID string, kind models.RoomKind) (*repository.RoomRecord, error)
}

// Workspace проект в памяти: комнаты, активная комната и единственный
// автомат взаимодействия.
type Workspace struct {
	Project     repository.Project                   `json:"project"`
	Rooms       map[models.RoomKind]models.RoomState `json:"rooms"`
	Interaction interaction.State                    `json:"interaction"`
}

func (ws *Workspace) snapshot() Workspace {
	out := *ws
	out.Rooms = make(map[models.RoomKind]models.RoomState, len(ws.Rooms))
	for k, v := range ws.Rooms {
		out.Rooms[k] = v
	}
	return out
}

// DefaultDimensions размеры новой комнаты, если клиент их не передал.
var DefaultDimensions = map[models.RoomKind]models.RoomDimensions{
	models.RoomKitchen:  {Width: 144, Height: 120, WallHeight: 96},
	models.RoomBathroom: {Width: 96, Height: 84, WallHeight: 96},
}

// ============================================================
// Workspace Manager
// ============================================================

type Manager struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace

	store    Store
	catalog  *catalog.Catalog
	settings models.Settings
	engine   *placement.Engine
	machine  *interaction.Machine
	tracer   trace.Tracer
}

func NewManager(store Store, c *catalog.Catalog, settings models.Settings) *Manager {
	engine := placement.NewEngine(settings, c)
	return &Manager{
		workspaces: make(map[string]*Workspace),
		store:      store,
		catalog:    c,
		settings:   settings,
		engine:     engine,
		machine:    interaction.NewMachine(engine),
		tracer:     telemetry.Tracer("planner"),
	}
}

func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

func (m *Manager) Settings() models.Settings {
	return m.settings
}

type CreateProjectRequest struct {
	Name     string                 `json:"name"`
	Kitchen  *models.RoomDimensions `json:"kitchen,omitempty"`
	Bathroom *models.RoomDimensions `json:"bathroom,omitempty"`
}

// CreateProject создает проект с пустыми кухней и ванной.
func (m *Manager) CreateProject(ctx context.Context, req CreateProjectRequest) (Workspace, error) {
	ctx, span := m.tracer.Start(ctx, "planner.create_project")
	defer span.End()

	dims := map[models.RoomKind]models.RoomDimensions{}
	for kind, def := range DefaultDimensions {
		dims[kind] = def
	}
	if req.Kitchen != nil {
		dims[models.RoomKitchen] = *req.Kitchen
	}
	if req.Bathroom != nil {
		dims[models.RoomBathroom] = *req.Bathroom
	}
	for _, d := range dims {
		if err := d.Validate(); err != nil {
			return Workspace{}, fail(span, err)
		}
	}

	ws := &Workspace{
		Project: repository.Project{
			ID:         uuid.NewString(),
			Name:       req.Name,
			ActiveRoom: models.RoomKitchen,
		},
		Rooms:       make(map[models.RoomKind]models.RoomState, len(dims)),
		Interaction: interaction.Idle(),
	}
	if err := m.store.CreateProject(ctx, ws.Project); err != nil {
		return Workspace{}, fail(span, err)
	}
	for kind, d := range dims {
		state := models.NewRoomState(kind, d)
		if err := m.save(ctx, ws.Project.ID, state); err != nil {
			return Workspace{}, fail(span, err)
		}
		ws.Rooms[kind] = state
	}

	snapshot := ws.snapshot()
	m.mu.Lock()
	m.workspaces[ws.Project.ID] = ws
	m.mu.Unlock()

	span.SetAttributes(attribute.String("project.id", ws.Project.ID))
	logutil.Infof("[PLANNER] Project %s created (%q)", ws.Project.ID, ws.Project.Name)
	return snapshot, nil
}

// Room текущее состояние комнаты.
func (m *Manager) Room(ctx context.Context, projectID string, kind models.RoomKind) (models.RoomState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.workspace(ctx, projectID)
	if err != nil {
		return models.RoomState{}, err
	}
	state, ok := ws.Rooms[kind]
	if !ok {
		return models.RoomState{}, fmt.Errorf("%w: %s", ErrUnknownRoom, kind)
	}
	return state, nil
}

// Workspace снимок проекта.
func (m *Manager) Workspace(ctx context.Context, projectID string) (Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.workspace(ctx, projectID)
	if err != nil {
		return Workspace{}, err
	}
	return ws.snapshot(), nil
}

// ============================================================
// Commit pipeline
// ============================================================

// mutate прогоняет операцию над комнатой. Новое состояние сначала
// сохраняется и только потом подменяет старое; при ошибке комната
// остается прежней.
func (m *Manager) mutate(ctx context.Context, op, projectID string, kind models.RoomKind, fn func(models.RoomState) (models.RoomState, error)) (models.RoomState, error) {
	ctx, span := m.tracer.Start(ctx, "planner."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("project.id", projectID),
		attribute.String("room.kind", string(kind)),
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.workspace(ctx, projectID)
	if err != nil {
		return models.RoomState{}, fail(span, err)
	}
	current, ok := ws.Rooms[kind]
	if !ok {
		return models.RoomState{}, fail(span, fmt.Errorf("%w: %s", ErrUnknownRoom, kind))
	}

	next, err := fn(current)
	if err != nil {
		logutil.Debugf("[PLANNER] %s rejected in %s/%s: %v", op, projectID, kind, err)
		return current, fail(span, err)
	}

	if err := m.save(ctx, projectID, next); err != nil {
		return current, fail(span, err)
	}
	ws.Rooms[kind] = next
	span.SetAttributes(attribute.Int("room.elements", len(next.Elements)))
	return next, nil
}

func (m *Manager) save(ctx context.Context, projectID string, state models.RoomState) error {
	data, err := persist.Encode(state)
	if err != nil {
		return err
	}
	return m.store.SaveRoom(ctx, projectID, state.Kind, data)
}

// workspace достает проект из памяти или поднимает его из хранилища.
// Вызывается под m.mu.
func (m *Manager) workspace(ctx context.Context, projectID string) (*Workspace, error) {
	if ws, ok := m.workspaces[projectID]; ok {
		return ws, nil
	}

	p, err := m.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProject, projectID)
		}
		return nil, err
	}

	ws := &Workspace{
		Project:     *p,
		Rooms:       make(map[models.RoomKind]models.RoomState),
		Interaction: interaction.Idle(),
	}
	for kind, def := range DefaultDimensions {
		rec, err := m.store.LoadRoom(ctx, projectID, kind)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			ws.Rooms[kind] = models.NewRoomState(kind, def)
			continue
		case err != nil:
			return nil, err
		}

		state, warnings, err := persist.Decode(rec.Payload, m.catalog)
		if err != nil {
			return nil, fmt.Errorf("load room %s/%s: %w", projectID, kind, err)
		}
		if len(warnings) > 0 {
			logutil.Warnf("[PLANNER] %d element(s) dropped while loading %s/%s", len(warnings), projectID, kind)
		}
		ws.Rooms[kind] = state
	}

	m.workspaces[projectID] = ws
	logutil.Debugf("[PLANNER] Project %s loaded from store", projectID)
	return ws, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
