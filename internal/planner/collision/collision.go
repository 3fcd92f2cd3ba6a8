package collision

import (
	"math"

	"room-planner/internal/planner/doors"
	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"

	"github.com/paulmach/orb"
)

// ============================================================
// Wall Collision
// ============================================================

// HitsWall проверяет прямоугольник bound против толстой пользовательской стены.
// Коллизия: расстояние от центра до прямой стены меньше
// (толщина + меньшая сторона)/2 и основание перпендикуляра лежит в
// t ∈ [-tol, 1+tol].
func HitsWall(bound orb.Bound, wall models.CustomWall, tol float64) bool {
	a, b := wall.Start(), wall.End()
	center := bound.Center()

	t := geometry.LineParameter(center, a, b)
	if t < -tol || t > 1+tol {
		return false
	}

	minor := math.Min(bound.Max.X()-bound.Min.X(), bound.Max.Y()-bound.Min.Y())
	limit := (wall.Thickness + minor) / 2
	return geometry.DistanceToLine(center, a, b)+geometry.Epsilon < limit
}

// ============================================================
// Checker
// ============================================================

// Checker снимок стен и зон одной комнаты для серии проверок.
// Собирается один раз на операцию, чтобы зоны не пересчитывались
// на каждый кандидат.
type Checker struct {
	walls     []models.CustomWall
	zones     []doors.ClearanceZone
	tolerance float64
}

func NewChecker(state *models.RoomState, settings models.Settings) *Checker {
	return &Checker{
		walls:     state.PresentCustomWalls(),
		zones:     doors.Zones(state, settings),
		tolerance: settings.WallSpanTolerance,
	}
}

// WallCollision номер первой стены, с которой пересекается bound.
func (c *Checker) WallCollision(bound orb.Bound) (int, bool) {
	for _, w := range c.walls {
		if HitsWall(bound, w, c.tolerance) {
			return w.WallNumber, true
		}
	}
	return 0, false
}

// ZoneCollision id двери, в зону которой заходит bound.
// Касание границы зоны коллизией не считается.
func (c *Checker) ZoneCollision(bound orb.Bound) (string, bool) {
	for _, z := range c.zones {
		if geometry.Overlaps(bound, z.Bound()) {
			return z.DoorID, true
		}
	}
	return "", false
}

func (c *Checker) Legal(bound orb.Bound) bool {
	if _, hit := c.WallCollision(bound); hit {
		return false
	}
	_, hit := c.ZoneCollision(bound)
	return !hit
}

func (c *Checker) Walls() []models.CustomWall {
	return c.walls
}

func (c *Checker) Zones() []doors.ClearanceZone {
	return c.zones
}

// ============================================================
// Audit
// ============================================================

type ViolationKind string

const (
	ViolationWall      ViolationKind = "wall"
	ViolationClearance ViolationKind = "clearance"
	// ViolationBounds модуль выходит за стандартные стены.
	ViolationBounds ViolationKind = "bounds"
)

type Violation struct {
	ElementID  string        `json:"elementId"`
	Kind       ViolationKind `json:"kind"`
	WallNumber int           `json:"wallNumber,omitempty"`
	DoorID     string        `json:"doorId,omitempty"`
}

// InsideRoom true, если прямоугольник целиком внутри комнаты.
func InsideRoom(b orb.Bound, dims models.RoomDimensions) bool {
	return b.Min.X() > -geometry.Epsilon && b.Min.Y() > -geometry.Epsilon &&
		b.Max.X() < dims.Width+geometry.Epsilon && b.Max.Y() < dims.Height+geometry.Epsilon
}

// Audit перечисляет все коллизии модулей в комнате. Используется после
// правок стен и дверей, которые могут сделать прежнюю расстановку
// недопустимой, и в CLI-проверке сохраненных комнат.
func Audit(state *models.RoomState, settings models.Settings, catalog Catalog) []Violation {
	checker := NewChecker(state, settings)
	out := []Violation{}
	for _, e := range state.Elements {
		if catalog != nil && !catalog.Has(e.Type) {
			continue
		}
		b := e.Bound()
		if !InsideRoom(b, state.Dimensions) {
			out = append(out, Violation{ElementID: e.ID, Kind: ViolationBounds})
		}
		for _, w := range checker.walls {
			if HitsWall(b, w, checker.tolerance) {
				out = append(out, Violation{ElementID: e.ID, Kind: ViolationWall, WallNumber: w.WallNumber})
			}
		}
		for _, z := range checker.zones {
			if geometry.Overlaps(b, z.Bound()) {
				out = append(out, Violation{ElementID: e.ID, Kind: ViolationClearance, DoorID: z.DoorID})
			}
		}
	}
	return out
}
