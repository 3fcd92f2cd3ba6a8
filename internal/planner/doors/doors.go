package doors

import (
	"fmt"
	"math"

	"room-planner/internal/planner/models"

	"github.com/google/uuid"
)

// ============================================================
// Doors
// ============================================================

type DoorRequest struct {
	WallNumber int     `json:"wallNumber"`
	Position   float64 `json:"position"`
	Width      float64 `json:"width"`
	Type       string  `json:"type"`
}

const defaultDoorType = "swing"

// AddDoor добавляет проем на активную стену.
func AddDoor(state models.RoomState, req DoorRequest) (models.RoomState, models.Door, error) {
	if err := validate(&state, req.WallNumber, req.Position, req.Width); err != nil {
		return state, models.Door{}, err
	}

	door := models.Door{
		ID:         uuid.NewString(),
		WallNumber: req.WallNumber,
		Position:   req.Position,
		Width:      req.Width,
		Type:       req.Type,
	}
	if door.Type == "" {
		door.Type = defaultDoorType
	}

	next := state.Clone()
	next.Doors = append(next.Doors, door)
	if w, ok := next.Custom(door.WallNumber); ok {
		w.Doors = append(w.Doors, door.ID)
		next.UpdateCustom(w)
	}
	return next, door, nil
}

// UpdateDoor меняет позицию и ширину проема; стена остается прежней.
func UpdateDoor(state models.RoomState, id string, position, width float64) (models.RoomState, error) {
	door, i, ok := state.Door(id)
	if !ok {
		return state, fmt.Errorf("%w: door %s", models.ErrStaleReference, id)
	}
	if err := validate(&state, door.WallNumber, position, width); err != nil {
		return state, err
	}

	next := state.Clone()
	next.Doors[i].Position = position
	next.Doors[i].Width = width
	return next, nil
}

func DeleteDoor(state models.RoomState, id string) (models.RoomState, error) {
	if _, _, ok := state.Door(id); !ok {
		return state, fmt.Errorf("%w: door %s", models.ErrStaleReference, id)
	}
	next := state.Clone()
	next.RemoveDoor(id)
	return next, nil
}

func validate(state *models.RoomState, wallNumber int, position, width float64) error {
	if !state.IsPresent(wallNumber) {
		return fmt.Errorf("%w: wall %d is not present", models.ErrStaleReference, wallNumber)
	}
	if math.IsNaN(position) || position < 0 || position > 100 {
		return fmt.Errorf("%w: door position %v outside 0..100", models.ErrInvalidGeometry, position)
	}
	if !(width > 0) {
		return fmt.Errorf("%w: door width must be positive", models.ErrInvalidGeometry)
	}
	length, _ := state.WallLength(wallNumber)
	if width > length {
		return fmt.Errorf("%w: door width %.1f exceeds wall %d length %.1f", models.ErrInvalidGeometry, width, wallNumber, length)
	}
	return nil
}
