package walls

import (
	"fmt"
	"math"

	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// ============================================================
// Custom Walls
// ============================================================

type WallRequest struct {
	X1           float64 `json:"x1"`
	Y1           float64 `json:"y1"`
	X2           float64 `json:"x2"`
	Y2           float64 `json:"y2"`
	Thickness    float64 `json:"thickness"`
	ExistedPrior bool    `json:"existedPrior"`
}

type WallResult struct {
	WallNumber int          `json:"wallNumber"`
	Start      SnappedPoint `json:"start"`
	End        SnappedPoint `json:"end"`
	// Crossings стены, которые новая стена пересекает вне своих концов.
	Crossings []int `json:"crossings"`
}

// junctionRadius пересечения ближе этого расстояния к концу стены считаются стыком.
const junctionRadius = 1.0

// AddCustomWall притягивает оба конца, проверяет длину и регистрирует стену
// под номером max+1. При ошибке возвращается исходное состояние.
func AddCustomWall(state models.RoomState, req WallRequest, settings models.Settings) (models.RoomState, WallResult, error) {
	start := SnapEndpoint(&state, orb.Point{req.X1, req.Y1}, settings)
	end := SnapEndpoint(&state, orb.Point{req.X2, req.Y2}, settings)
	return AddSnappedWall(state, start, end, req, settings)
}

// AddSnappedWall регистрирует стену по уже притянутым концам. Координаты
// из req не используются, только толщина и existedPrior.
func AddSnappedWall(state models.RoomState, start, end SnappedPoint, req WallRequest, settings models.Settings) (models.RoomState, WallResult, error) {
	if req.Thickness < 0 {
		return state, WallResult{}, fmt.Errorf("%w: negative wall thickness", models.ErrInvalidGeometry)
	}

	length := geometry.Distance(start.Point(), end.Point())
	if length < settings.MinWallLength {
		return state, WallResult{}, fmt.Errorf("%w: wall length %.1f is shorter than %.1f", models.ErrInvalidGeometry, length, settings.MinWallLength)
	}

	thickness := req.Thickness
	if thickness == 0 {
		thickness = settings.DefaultWallThickness
	}

	next := state.Clone()
	wall := models.CustomWall{
		ID:           uuid.NewString(),
		WallNumber:   next.NextWallNumber(),
		X1:           start.X,
		Y1:           start.Y,
		X2:           end.X,
		Y2:           end.Y,
		Thickness:    thickness,
		ExistedPrior: req.ExistedPrior,
		Doors:        []string{},
	}

	result := WallResult{
		WallNumber: wall.WallNumber,
		Start:      start,
		End:        end,
		Crossings:  Crossings(&next, wall),
	}

	next.RegisterCustom(wall)
	return next, result, nil
}

// Crossings номера активных пользовательских стен, которые пересекает wall.
func Crossings(state *models.RoomState, wall models.CustomWall) []int {
	out := []int{}
	for _, other := range state.PresentCustomWalls() {
		if other.WallNumber == wall.WallNumber {
			continue
		}
		p, ok := geometry.SegmentsIntersect(wall.Start(), wall.End(), other.Start(), other.End())
		if !ok {
			continue
		}
		if geometry.Distance(p, wall.Start()) <= junctionRadius || geometry.Distance(p, wall.End()) <= junctionRadius {
			continue
		}
		out = append(out, other.WallNumber)
	}
	return out
}

// RotateCustomWall ставит стену под абсолютным углом вокруг ее середины,
// длина сохраняется.
func RotateCustomWall(state models.RoomState, n int, angle float64) (models.RoomState, error) {
	wall, ok := state.Custom(n)
	if !ok {
		return state, fmt.Errorf("%w: custom wall %d", models.ErrStaleReference, n)
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return state, fmt.Errorf("%w: angle %v", models.ErrInvalidGeometry, angle)
	}

	mid := wall.Midpoint()
	half := wall.Length() / 2
	rad := geometry.NormalizeAngle(angle) * math.Pi / 180
	dx, dy := math.Cos(rad)*half, math.Sin(rad)*half

	wall.X1, wall.Y1 = mid.X()-dx, mid.Y()-dy
	wall.X2, wall.Y2 = mid.X()+dx, mid.Y()+dy

	next := state.Clone()
	next.UpdateCustom(wall)
	return next, nil
}

// DeleteCustomWall удаляет стену из всех коллекций и каскадно ее двери.
func DeleteCustomWall(state models.RoomState, n int) (models.RoomState, []string, error) {
	if models.IsStandardWall(n) {
		return state, nil, fmt.Errorf("%w: wall %d is a standard wall", models.ErrInvalidGeometry, n)
	}
	if _, ok := state.Custom(n); !ok {
		return state, nil, fmt.Errorf("%w: custom wall %d", models.ErrStaleReference, n)
	}

	next := state.Clone()
	removedDoors := next.RemoveDoorsOnWall(n)
	next.DeleteCustom(n)
	return next, removedDoors, nil
}

// ============================================================
// Standard Walls
// ============================================================

func AddStandardWall(state models.RoomState, n int) (models.RoomState, error) {
	if !models.IsStandardWall(n) {
		return state, fmt.Errorf("%w: %d is not a standard wall", models.ErrInvalidGeometry, n)
	}
	next := state.Clone()
	next.ActivateStandard(n)
	return next, nil
}

// RestingElements модули, прислоненные к внутренней грани стандартной стены.
func RestingElements(state *models.RoomState, n int, tolerance float64) []string {
	out := []string{}
	dims := state.Dimensions
	for _, e := range state.Elements {
		b := e.Bound()
		var gap float64
		switch n {
		case models.WallTop:
			gap = b.Min.Y()
		case models.WallRight:
			gap = dims.Width - b.Max.X()
		case models.WallBottom:
			gap = dims.Height - b.Max.Y()
		case models.WallLeft:
			gap = b.Min.X()
		default:
			return out
		}
		if gap <= tolerance {
			out = append(out, e.ID)
		}
	}
	return out
}

// RemoveStandardWall убирает стандартную стену. Если к ней прислонены
// модули, без confirmed возвращается ErrConfirmationRequired и их список;
// с подтверждением модули удаляются вместе с дверями стены.
func RemoveStandardWall(state models.RoomState, n int, confirmed bool, settings models.Settings) (models.RoomState, []string, error) {
	if !models.IsStandardWall(n) {
		return state, nil, fmt.Errorf("%w: %d is not a standard wall", models.ErrInvalidGeometry, n)
	}
	if !state.IsPresent(n) {
		return state, []string{}, nil
	}

	affected := RestingElements(&state, n, settings.RestingTolerance)
	if len(affected) > 0 && !confirmed {
		return state, affected, fmt.Errorf("%w: %d element(s) rest against wall %d", models.ErrConfirmationRequired, len(affected), n)
	}

	next := state.Clone()
	for _, id := range affected {
		next.RemoveElement(id)
	}
	next.RemoveDoorsOnWall(n)
	next.DeactivateStandard(n)
	return next, affected, nil
}
