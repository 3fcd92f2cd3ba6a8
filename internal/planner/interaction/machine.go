// Package interaction описывает перетаскивание модулей и рисование стен
// как явный автомат. Step чистая функция: не хранит состояние и не
// трогает входные значения, поэтому ее можно вызывать из любого транспорта.
package interaction

import (
	"errors"
	"fmt"
	"math"
	"time"

	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/placement"
	"room-planner/internal/planner/walls"

	"github.com/paulmach/orb"
)

// ============================================================
// States & inputs
// ============================================================

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseDragging  Phase = "dragging"
	PhaseCommitted Phase = "committed"
	PhaseCancelled Phase = "cancelled"
)

type InputKind string

const (
	InputPointerDown InputKind = "pointer-down"
	InputPointerMove InputKind = "pointer-move"
	InputPointerUp   InputKind = "pointer-up"
	InputCancel      InputKind = "cancel"
	InputRoomSwitch  InputKind = "room-switch"
	InputWallClick   InputKind = "wall-click"
	InputWallHover   InputKind = "wall-hover"
	InputWallCancel  InputKind = "wall-cancel"
)

// Input X/Y координаты указателя в системе комнаты, At время события
// (нужно только для ограничения частоты пересчета превью).
type Input struct {
	Kind      InputKind `json:"kind"`
	ElementID string    `json:"elementId,omitempty"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	At        time.Time `json:"at"`
}

// Drag активное перетаскивание. Origin позиция модуля в момент нажатия,
// Pointer точка нажатия.
type Drag struct {
	ElementID string                `json:"elementId"`
	OriginX   float64               `json:"originX"`
	OriginY   float64               `json:"originY"`
	PointerX  float64               `json:"pointerX"`
	PointerY  float64               `json:"pointerY"`
	Preview   *placement.Resolution `json:"preview,omitempty"`
	LastTick  time.Time             `json:"lastTick"`
}

// WallDraft стена в процессе рисования: первый клик уже притянут.
type WallDraft struct {
	Start walls.SnappedPoint  `json:"start"`
	Hover *walls.SnappedPoint `json:"hover,omitempty"`
}

type State struct {
	Phase Phase      `json:"phase"`
	Drag  *Drag      `json:"drag,omitempty"`
	Draft *WallDraft `json:"draft,omitempty"`

	// Результат последнего завершенного действия.
	Committed *placement.Resolution `json:"committed,omitempty"`
	Rejected  bool                  `json:"rejected,omitempty"`
	LastWall  *walls.WallResult     `json:"lastWall,omitempty"`
}

func Idle() State {
	return State{Phase: PhaseIdle}
}

// ============================================================
// Machine
// ============================================================

type Machine struct {
	engine   *placement.Engine
	settings models.Settings
}

func NewMachine(engine *placement.Engine) *Machine {
	return &Machine{engine: engine, settings: engine.Settings()}
}

// Step применяет один ввод. Комната меняется только на pointer-up с
// допустимым результатом и на втором клике рисования стены.
func (m *Machine) Step(room models.RoomState, s State, in Input) (models.RoomState, State, error) {
	switch in.Kind {
	case InputPointerDown:
		return m.pointerDown(room, s, in)
	case InputPointerMove:
		return room, m.pointerMove(&room, s, in), nil
	case InputPointerUp:
		return m.pointerUp(room, s, in)
	case InputCancel:
		if s.Phase != PhaseDragging {
			return room, s, nil
		}
		return room, cancelled(s), nil
	case InputRoomSwitch:
		return room, Idle(), nil
	case InputWallClick:
		return m.wallClick(room, s, in)
	case InputWallHover:
		return room, m.wallHover(&room, s, in), nil
	case InputWallCancel:
		next := s
		next.Draft = nil
		return room, next, nil
	}
	return room, s, fmt.Errorf("unknown input kind %q", in.Kind)
}

func (m *Machine) pointerDown(room models.RoomState, s State, in Input) (models.RoomState, State, error) {
	el, _, ok := room.Element(in.ElementID)
	if !ok {
		return room, s, fmt.Errorf("%w: element %s", models.ErrStaleReference, in.ElementID)
	}

	next := s
	next.Phase = PhaseDragging
	next.Committed = nil
	next.Rejected = false
	next.Drag = &Drag{
		ElementID: el.ID,
		OriginX:   el.X,
		OriginY:   el.Y,
		PointerX:  in.X,
		PointerY:  in.Y,
	}
	return room, next, nil
}

// pointerMove пересчитывает превью не чаще раза в DragTick.
// Пропущенные события не влияют на итог: pointer-up считает от
// конечной точки указателя.
func (m *Machine) pointerMove(room *models.RoomState, s State, in Input) State {
	if s.Phase != PhaseDragging || s.Drag == nil {
		return s
	}
	// Без отметки времени пересчитываем всегда.
	if !in.At.IsZero() && !s.Drag.LastTick.IsZero() && in.At.Sub(s.Drag.LastTick) < m.settings.DragTick {
		return s
	}

	el, _, ok := room.Element(s.Drag.ElementID)
	if !ok {
		return cancelled(s)
	}
	if !m.engine.Knows(el.Type) {
		return s
	}

	drag := *s.Drag
	x, y := drag.target(in)
	res := m.engine.Resolve(room, el, x, y)
	drag.Preview = &res
	drag.LastTick = in.At

	next := s
	next.Drag = &drag
	return next
}

func (m *Machine) pointerUp(room models.RoomState, s State, in Input) (models.RoomState, State, error) {
	if s.Phase != PhaseDragging || s.Drag == nil {
		return room, s, nil
	}

	drag := *s.Drag
	dx, dy := in.X-drag.PointerX, in.Y-drag.PointerY
	if math.Abs(dx) < geometry.Epsilon && math.Abs(dy) < geometry.Epsilon {
		return room, cancelled(s), nil
	}

	x, y := drag.target(in)
	nextRoom, res, err := m.engine.Move(room, drag.ElementID, x, y)
	switch {
	case errors.Is(err, models.ErrIllegalPlacement):
		next := cancelled(s)
		next.Rejected = true
		return room, next, nil
	case err != nil:
		return room, cancelled(s), err
	}

	next := s
	next.Phase = PhaseCommitted
	next.Drag = nil
	next.Committed = &res
	next.Rejected = false
	return nextRoom, next, nil
}

func (d Drag) target(in Input) (float64, float64) {
	return d.OriginX + (in.X - d.PointerX), d.OriginY + (in.Y - d.PointerY)
}

func cancelled(s State) State {
	next := s
	next.Phase = PhaseCancelled
	next.Drag = nil
	return next
}

// ============================================================
// Wall drawing
// ============================================================

// wallClick первый клик фиксирует притянутое начало, второй создает стену.
// Слишком короткая стена отклоняется, начало остается для повторной попытки.
func (m *Machine) wallClick(room models.RoomState, s State, in Input) (models.RoomState, State, error) {
	click := orb.Point{in.X, in.Y}
	if s.Draft == nil {
		next := s
		next.Draft = &WallDraft{Start: walls.SnapEndpoint(&room, click, m.settings)}
		return room, next, nil
	}

	// Начало уже притянуто первым кликом, повторно его не двигаем.
	end := walls.SnapEndpoint(&room, click, m.settings)
	nextRoom, res, err := walls.AddSnappedWall(room, s.Draft.Start, end, walls.WallRequest{}, m.settings)
	if err != nil {
		return room, s, err
	}

	next := s
	next.Draft = nil
	next.LastWall = &res
	return nextRoom, next, nil
}

func (m *Machine) wallHover(room *models.RoomState, s State, in Input) State {
	if s.Draft == nil {
		return s
	}
	hover := walls.SnapEndpoint(room, orb.Point{in.X, in.Y}, m.settings)
	draft := *s.Draft
	draft.Hover = &hover

	next := s
	next.Draft = &draft
	return next
}
