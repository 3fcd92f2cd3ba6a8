package walls

import (
	"math"

	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"

	"github.com/paulmach/orb"
)

// ============================================================
// Endpoint Snapping
// ============================================================

type SnapKind string

const (
	SnapNone    SnapKind = "none"
	SnapWallEnd SnapKind = "endpoint"
	SnapCorner  SnapKind = "corner"
	SnapEdge    SnapKind = "edge"
)

type SnappedPoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Kind       SnapKind `json:"kind"`
	WallNumber int      `json:"wallNumber,omitempty"`
}

func (p SnappedPoint) Point() orb.Point {
	return orb.Point{p.X, p.Y}
}

// SnapEndpoint притягивает клик к ближайшей опорной точке.
// Порядок: концы пользовательских стен, углы комнаты, внутренние грани
// активных стандартных стен. Первая группа с попаданием в радиус побеждает.
// Внутри группы при равных расстояниях выигрывает кандидат, встреченный
// первым: меньший номер стены, начало раньше конца, углы по часовой
// стрелке от левого верхнего.
func SnapEndpoint(state *models.RoomState, click orb.Point, settings models.Settings) SnappedPoint {
	radius := settings.EndpointSnapRadius

	best := SnappedPoint{X: click.X(), Y: click.Y(), Kind: SnapNone}
	bestDist := math.Inf(1)
	consider := func(p orb.Point, kind SnapKind, wall int) {
		d := geometry.Distance(click, p)
		if d <= radius && d < bestDist {
			bestDist = d
			best = SnappedPoint{X: p.X(), Y: p.Y(), Kind: kind, WallNumber: wall}
		}
	}

	for _, w := range state.PresentCustomWalls() {
		consider(w.Start(), SnapWallEnd, w.WallNumber)
		consider(w.End(), SnapWallEnd, w.WallNumber)
	}
	if best.Kind != SnapNone {
		return best
	}

	for _, c := range state.Dimensions.Corners() {
		consider(c, SnapCorner, 0)
	}
	if best.Kind != SnapNone {
		return best
	}

	for _, n := range models.StandardWalls() {
		if !state.IsPresent(n) {
			continue
		}
		a, b, _ := state.Dimensions.InnerFace(n)
		foot, _ := geometry.ProjectOntoSegment(click, a, b)
		consider(foot, SnapEdge, n)
	}
	return best
}
