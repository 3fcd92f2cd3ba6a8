package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"room-planner/internal/common/logutil"
	"room-planner/internal/planner/collision"
	"room-planner/internal/planner/doors"
	"room-planner/internal/planner/interaction"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/overlay"
	"room-planner/internal/planner/placement"
	"room-planner/internal/planner/walls"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Room
// ============================================================

// RoomChange результат смены размеров. Moved модули, которые пришлось
// вернуть внутрь комнаты.
type RoomChange struct {
	Room       models.RoomState      `json:"room"`
	Moved      []string              `json:"moved"`
	Violations []collision.Violation `json:"violations"`
}

// SetDimensions меняет размеры комнаты. Модули за новыми стенами
// прижимаются внутрь; пользовательская стена за пределами новой комнаты
// дает ErrIllegalPlacement.
func (m *Manager) SetDimensions(ctx context.Context, projectID string, kind models.RoomKind, dims models.RoomDimensions) (RoomChange, error) {
	moved := []string{}
	room, err := m.mutate(ctx, "set_dimensions", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		if err := dims.Validate(); err != nil {
			return s, err
		}
		for _, w := range s.PresentCustomWalls() {
			if !dims.Contains(w.Start()) || !dims.Contains(w.End()) {
				return s, fmt.Errorf("%w: wall %d lies outside %.0fx%.0f", models.ErrIllegalPlacement, w.WallNumber, dims.Width, dims.Height)
			}
		}
		next := s.Clone()
		next.Dimensions = dims
		next, moved = m.engine.Refit(next)
		return next, nil
	})
	if err != nil {
		return RoomChange{Room: room}, err
	}
	if len(moved) > 0 {
		logutil.Infof("[PLANNER] Resize of %s/%s moved %d element(s)", projectID, kind, len(moved))
	}
	return RoomChange{Room: room, Moved: moved, Violations: collision.Audit(&room, m.settings, m.catalog)}, nil
}

// ============================================================
// Walls
// ============================================================

// WallChange результат правки стен. Violations носит рекомендательный
// характер: модули, которые после правки задевают стену или зону двери.
type WallChange struct {
	Room       models.RoomState      `json:"room"`
	Wall       *walls.WallResult     `json:"wall,omitempty"`
	Affected   []string              `json:"affected,omitempty"`
	Violations []collision.Violation `json:"violations"`
}

func (m *Manager) AddStandardWall(ctx context.Context, projectID string, kind models.RoomKind, n int) (WallChange, error) {
	room, err := m.mutate(ctx, "add_standard_wall", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		return walls.AddStandardWall(s, n)
	})
	if err != nil {
		return WallChange{}, err
	}
	return m.wallChange(room), nil
}

// RemoveStandardWall при ErrConfirmationRequired отдает список
// прислоненных модулей вместе с ошибкой.
func (m *Manager) RemoveStandardWall(ctx context.Context, projectID string, kind models.RoomKind, n int, confirmed bool) (WallChange, error) {
	var affected []string
	room, err := m.mutate(ctx, "remove_standard_wall", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		next, ids, err := walls.RemoveStandardWall(s, n, confirmed, m.settings)
		affected = ids
		return next, err
	})
	if err != nil {
		if errors.Is(err, models.ErrConfirmationRequired) {
			return WallChange{Room: room, Affected: affected, Violations: []collision.Violation{}}, err
		}
		return WallChange{}, err
	}
	change := m.wallChange(room)
	change.Affected = affected
	if len(affected) > 0 {
		logutil.Infof("[PLANNER] Wall %d removed in %s/%s with %d element(s)", n, projectID, kind, len(affected))
	}
	return change, nil
}

func (m *Manager) AddCustomWall(ctx context.Context, projectID string, kind models.RoomKind, req walls.WallRequest) (WallChange, error) {
	var result walls.WallResult
	room, err := m.mutate(ctx, "add_custom_wall", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		next, res, err := walls.AddCustomWall(s, req, m.settings)
		result = res
		return next, err
	})
	if err != nil {
		return WallChange{}, err
	}
	change := m.wallChange(room)
	change.Wall = &result
	return change, nil
}

func (m *Manager) RotateCustomWall(ctx context.Context, projectID string, kind models.RoomKind, n int, angle float64) (WallChange, error) {
	room, err := m.mutate(ctx, "rotate_custom_wall", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		return walls.RotateCustomWall(s, n, angle)
	})
	if err != nil {
		return WallChange{}, err
	}
	return m.wallChange(room), nil
}

// DeleteCustomWall удаляет стену вместе с ее дверями; Affected id дверей.
func (m *Manager) DeleteCustomWall(ctx context.Context, projectID string, kind models.RoomKind, n int) (WallChange, error) {
	var removed []string
	room, err := m.mutate(ctx, "delete_custom_wall", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		next, ids, err := walls.DeleteCustomWall(s, n)
		removed = ids
		return next, err
	})
	if err != nil {
		return WallChange{}, err
	}
	change := m.wallChange(room)
	change.Affected = removed
	return change, nil
}

func (m *Manager) wallChange(room models.RoomState) WallChange {
	return WallChange{Room: room, Violations: collision.Audit(&room, m.settings, m.catalog)}
}

// ============================================================
// Doors
// ============================================================

type DoorChange struct {
	Room       models.RoomState      `json:"room"`
	Door       *models.Door          `json:"door,omitempty"`
	Violations []collision.Violation `json:"violations"`
}

func (m *Manager) AddDoor(ctx context.Context, projectID string, kind models.RoomKind, req doors.DoorRequest) (DoorChange, error) {
	var door models.Door
	room, err := m.mutate(ctx, "add_door", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		next, d, err := doors.AddDoor(s, req)
		door = d
		return next, err
	})
	if err != nil {
		return DoorChange{}, err
	}
	return DoorChange{Room: room, Door: &door, Violations: collision.Audit(&room, m.settings, m.catalog)}, nil
}

func (m *Manager) UpdateDoor(ctx context.Context, projectID string, kind models.RoomKind, id string, position, width float64) (DoorChange, error) {
	room, err := m.mutate(ctx, "update_door", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		return doors.UpdateDoor(s, id, position, width)
	})
	if err != nil {
		return DoorChange{}, err
	}
	change := DoorChange{Room: room, Violations: collision.Audit(&room, m.settings, m.catalog)}
	if d, _, ok := room.Door(id); ok {
		change.Door = &d
	}
	return change, nil
}

func (m *Manager) DeleteDoor(ctx context.Context, projectID string, kind models.RoomKind, id string) (models.RoomState, error) {
	return m.mutate(ctx, "delete_door", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		return doors.DeleteDoor(s, id)
	})
}

// ============================================================
// Elements
// ============================================================

type ElementChange struct {
	Room       models.RoomState     `json:"room"`
	Resolution placement.Resolution `json:"resolution"`
}

func (m *Manager) AddElement(ctx context.Context, projectID string, kind models.RoomKind, req placement.AddRequest) (models.RoomState, placement.AddResult, error) {
	var result placement.AddResult
	room, err := m.mutate(ctx, "add_element", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		next, res, err := m.engine.Add(s, req)
		result = res
		return next, err
	})
	if err != nil {
		return room, placement.AddResult{}, err
	}
	if result.Warning != "" {
		logutil.Warnf("[PLANNER] %s/%s: %s", projectID, kind, result.Warning)
	}
	return room, result, nil
}

func (m *Manager) MoveElement(ctx context.Context, projectID string, kind models.RoomKind, id string, x, y float64) (ElementChange, error) {
	return m.elementOp(ctx, "move_element", projectID, kind, func(s models.RoomState) (models.RoomState, placement.Resolution, error) {
		return m.engine.Move(s, id, x, y)
	})
}

func (m *Manager) RotateElement(ctx context.Context, projectID string, kind models.RoomKind, id string, rotation float64) (ElementChange, error) {
	return m.elementOp(ctx, "rotate_element", projectID, kind, func(s models.RoomState) (models.RoomState, placement.Resolution, error) {
		return m.engine.Rotate(s, id, rotation)
	})
}

func (m *Manager) ResizeElement(ctx context.Context, projectID string, kind models.RoomKind, id string, width, depth float64) (ElementChange, error) {
	return m.elementOp(ctx, "resize_element", projectID, kind, func(s models.RoomState) (models.RoomState, placement.Resolution, error) {
		return m.engine.Resize(s, id, width, depth)
	})
}

func (m *Manager) DeleteElement(ctx context.Context, projectID string, kind models.RoomKind, id string) (models.RoomState, error) {
	return m.mutate(ctx, "delete_element", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		return m.engine.Delete(s, id)
	})
}

func (m *Manager) SetMaterial(ctx context.Context, projectID string, kind models.RoomKind, id, material string) (models.RoomState, error) {
	return m.mutate(ctx, "set_material", projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		return m.engine.SetMaterial(s, id, material)
	})
}

func (m *Manager) elementOp(ctx context.Context, op, projectID string, kind models.RoomKind, fn func(models.RoomState) (models.RoomState, placement.Resolution, error)) (ElementChange, error) {
	var res placement.Resolution
	room, err := m.mutate(ctx, op, projectID, kind, func(s models.RoomState) (models.RoomState, error) {
		next, r, err := fn(s)
		res = r
		return next, err
	})
	if err != nil {
		return ElementChange{}, err
	}
	return ElementChange{Room: room, Resolution: res}, nil
}

// ============================================================
// Interaction
// ============================================================

type InteractionResult struct {
	Room  models.RoomState  `json:"room"`
	State interaction.State `json:"state"`
}

// Interact прогоняет ввод через автомат проекта. Ввод в неактивную комнату
// сначала переключает проект на нее (со сбросом перетаскивания).
// Комната сохраняется только если шаг ее изменил.
func (m *Manager) Interact(ctx context.Context, projectID string, kind models.RoomKind, in interaction.Input) (InteractionResult, error) {
	ctx, span := m.tracer.Start(ctx, "planner.interact")
	defer span.End()
	span.SetAttributes(
		attribute.String("project.id", projectID),
		attribute.String("room.kind", string(kind)),
		attribute.String("input.kind", string(in.Kind)),
	)

	if in.At.IsZero() {
		in.At = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.workspace(ctx, projectID)
	if err != nil {
		return InteractionResult{}, fail(span, err)
	}
	room, ok := ws.Rooms[kind]
	if !ok {
		return InteractionResult{}, fail(span, fmt.Errorf("%w: %s", ErrUnknownRoom, kind))
	}

	state := ws.Interaction
	if ws.Project.ActiveRoom != kind {
		if err := m.activate(ctx, ws, kind); err != nil {
			return InteractionResult{}, fail(span, err)
		}
		_, state, _ = m.machine.Step(room, state, interaction.Input{Kind: interaction.InputRoomSwitch, At: in.At})
	}

	nextRoom, nextState, err := m.machine.Step(room, state, in)
	ws.Interaction = nextState
	if err != nil {
		return InteractionResult{Room: room, State: nextState}, fail(span, err)
	}

	if changed(room, nextRoom) {
		if err := m.save(ctx, projectID, nextRoom); err != nil {
			return InteractionResult{Room: room, State: nextState}, fail(span, err)
		}
		ws.Rooms[kind] = nextRoom
	}
	span.SetAttributes(attribute.String("interaction.phase", string(nextState.Phase)))
	return InteractionResult{Room: nextRoom, State: nextState}, nil
}

// SwitchRoom делает комнату активной и сбрасывает незавершенные действия.
func (m *Manager) SwitchRoom(ctx context.Context, projectID string, kind models.RoomKind) (Workspace, error) {
	ctx, span := m.tracer.Start(ctx, "planner.switch_room")
	defer span.End()

	if !kind.Valid() {
		return Workspace{}, fail(span, fmt.Errorf("%w: %s", ErrUnknownRoom, kind))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.workspace(ctx, projectID)
	if err != nil {
		return Workspace{}, fail(span, err)
	}
	if err := m.activate(ctx, ws, kind); err != nil {
		return Workspace{}, fail(span, err)
	}
	_, ws.Interaction, _ = m.machine.Step(ws.Rooms[kind], ws.Interaction, interaction.Input{Kind: interaction.InputRoomSwitch, At: time.Now()})
	return ws.snapshot(), nil
}

// activate вызывается под m.mu.
func (m *Manager) activate(ctx context.Context, ws *Workspace, kind models.RoomKind) error {
	if err := m.store.SetActiveRoom(ctx, ws.Project.ID, kind); err != nil {
		return err
	}
	logutil.Debugf("[PLANNER] Project %s: active room %s -> %s", ws.Project.ID, ws.Project.ActiveRoom, kind)
	ws.Project.ActiveRoom = kind
	return nil
}

// changed автомат возвращает ту же комнату, если фиксации не было.
func changed(before, after models.RoomState) bool {
	return !reflect.DeepEqual(before, after)
}

// ============================================================
// Derived views
// ============================================================

func (m *Manager) Clearance(ctx context.Context, projectID string, kind models.RoomKind) ([]doors.ClearanceZone, error) {
	room, err := m.Room(ctx, projectID, kind)
	if err != nil {
		return nil, err
	}
	return doors.Zones(&room, m.settings), nil
}

func (m *Manager) Overlay(ctx context.Context, projectID string, kind models.RoomKind) (string, error) {
	room, err := m.Room(ctx, projectID, kind)
	if err != nil {
		return "", err
	}
	return overlay.NewRenderer(m.settings).Render(&room)
}

func (m *Manager) Audit(ctx context.Context, projectID string, kind models.RoomKind) ([]collision.Violation, error) {
	room, err := m.Room(ctx, projectID, kind)
	if err != nil {
		return nil, err
	}
	return collision.Audit(&room, m.settings, m.catalog), nil
}
