package placement

import (
	"math"
	"strconv"

	"room-planner/internal/planner/collision"
	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"

	"github.com/paulmach/orb"
)

// ============================================================
// Snap Resolution
// ============================================================

type SnapSource string

const (
	SourceNone         SnapSource = "none"
	SourceFixture      SnapSource = "fixture"
	SourceStandardWall SnapSource = "standard-wall"
	SourceCustomWall   SnapSource = "custom-wall"
)

// Resolution итог одного прохода привязки для кандидата.
// Anchor id соседнего модуля или номер стены, к которой притянуло.
type Resolution struct {
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Rotation float64    `json:"rotation"`
	Source   SnapSource `json:"source"`
	Anchor   string     `json:"anchor,omitempty"`
	Legal    bool       `json:"legal"`
}

// placement рабочий прямоугольник кандидата.
type placement struct {
	x, y, w, h float64
	rotation   float64
}

func (p placement) bound() orb.Bound {
	return geometry.RectBound(p.x, p.y, p.w, p.h)
}

func (p placement) center() orb.Point {
	return orb.Point{p.x + p.w/2, p.y + p.h/2}
}

// resolve прогоняет кандидата через весь конвейер: зажим в комнату,
// привязка (модуль > стандартная стена > пользовательская стена),
// повторный зажим и проверка коллизий. Ровно один источник привязки.
func (e *Engine) resolve(state *models.RoomState, el models.Element, x, y float64, alignRotation bool) Resolution {
	w, h := models.FootprintFor(el.Width, el.Depth, el.Rotation)
	p := placement{x: x, y: y, w: w, h: h, rotation: el.Rotation}
	p = clampToRoom(p, state.Dimensions)

	source, anchor := SourceNone, ""
	if snapped, id, ok := e.snapToFixture(state, el.ID, p); ok {
		p, source, anchor = snapped, SourceFixture, id
	} else if snapped, ok := e.snapToStandardWalls(state, p); ok {
		p, source = snapped, SourceStandardWall
	} else if snapped, n, ok := e.snapToCustomWall(state, el, p, alignRotation); ok {
		p, source, anchor = snapped, SourceCustomWall, strconv.Itoa(n)
	}

	p = clampToRoom(p, state.Dimensions)
	checker := collision.NewChecker(state, e.settings)

	return Resolution{
		X:        p.x,
		Y:        p.y,
		Rotation: p.rotation,
		Source:   source,
		Anchor:   anchor,
		Legal:    checker.Legal(p.bound()),
	}
}

func clampToRoom(p placement, dims models.RoomDimensions) placement {
	p.x = geometry.Clamp(p.x, 0, dims.Width-p.w)
	p.y = geometry.Clamp(p.y, 0, dims.Height-p.h)
	return p
}

// ============================================================
// Fixture to fixture
// ============================================================

// snapToFixture ищет ближайшее примыкание к соседнему модулю.
// Стороны перебираются в порядке справа, слева, сверху, снизу;
// при равных зазорах выигрывает первый найденный.
func (e *Engine) snapToFixture(state *models.RoomState, selfID string, p placement) (placement, string, bool) {
	limit := e.settings.FixtureSnapDistance
	index := collision.NewFixtureIndex(state.Elements, e.catalog)

	best, bestID := p, ""
	bestGap := math.Inf(1)
	consider := func(gap float64, next placement, id string) {
		if gap <= limit && gap < bestGap {
			bestGap, best, bestID = gap, next, id
		}
	}

	for _, n := range index.Near(p.bound(), limit, selfID) {
		nb := n.Bound()
		overlapY := spanOverlap(p.y, p.y+p.h, nb.Min.Y(), nb.Max.Y())
		overlapX := spanOverlap(p.x, p.x+p.w, nb.Min.X(), nb.Max.X())

		if overlapY {
			// правая грань кандидата к левой грани соседа
			next := p
			next.x = nb.Min.X() - p.w
			consider(math.Abs(nb.Min.X()-(p.x+p.w)), next, n.ID)

			next = p
			next.x = nb.Max.X()
			consider(math.Abs(p.x-nb.Max.X()), next, n.ID)
		}
		if overlapX {
			next := p
			next.y = nb.Max.Y()
			consider(math.Abs(p.y-nb.Max.Y()), next, n.ID)

			next = p
			next.y = nb.Min.Y() - p.h
			consider(math.Abs(nb.Min.Y()-(p.y+p.h)), next, n.ID)
		}
	}
	return best, bestID, bestID != ""
}

// spanOverlap положительное пересечение отрезков [a1,a2] и [b1,b2].
func spanOverlap(a1, a2, b1, b2 float64) bool {
	return a1 < b2-geometry.Epsilon && a2 > b1+geometry.Epsilon
}

// ============================================================
// Fixture to standard wall
// ============================================================

// snapToStandardWalls прижимает к присутствующим стандартным стенам по обеим осям.
func (e *Engine) snapToStandardWalls(state *models.RoomState, p placement) (placement, bool) {
	limit := e.settings.WallSnapDistance
	dims := state.Dimensions
	snapped := false

	axis := func(pos, size, extent float64, low, high int) float64 {
		lowGap, highGap := math.Inf(1), math.Inf(1)
		if state.IsPresent(low) {
			lowGap = pos
		}
		if state.IsPresent(high) {
			highGap = extent - (pos + size)
		}
		switch {
		case lowGap <= limit && lowGap <= highGap:
			snapped = true
			return 0
		case highGap <= limit:
			snapped = true
			return extent - size
		}
		return pos
	}

	p.x = axis(p.x, p.w, dims.Width, models.WallLeft, models.WallRight)
	p.y = axis(p.y, p.h, dims.Height, models.WallTop, models.WallBottom)
	return p, snapped
}

// ============================================================
// Fixture to custom wall
// ============================================================

// snapToCustomWall ставит модуль вплотную к ближайшей пользовательской стене
// с той стороны, где находится его центр.
func (e *Engine) snapToCustomWall(state *models.RoomState, el models.Element, p placement, alignRotation bool) (placement, int, bool) {
	center := p.center()
	minor := math.Min(p.w, p.h)

	var (
		wall    models.CustomWall
		foot    orb.Point
		found   bool
		minDist = math.Inf(1)
	)
	for _, w := range state.PresentCustomWalls() {
		q, _ := geometry.ProjectOntoSegment(center, w.Start(), w.End())
		if d := geometry.Distance(center, q); d < minDist {
			minDist, wall, foot, found = d, w, q, true
		}
	}
	if !found {
		return p, 0, false
	}

	offset := (wall.Thickness + minor) / 2
	if minDist-offset > e.settings.WallSnapDistance {
		return p, 0, false
	}

	normal := geometry.Normal(geometry.Direction(wall.Start(), wall.End()))
	side := (center.X()-foot.X())*normal.X() + (center.Y()-foot.Y())*normal.Y()
	if math.Abs(side) < geometry.Epsilon {
		roomCenter := state.Dimensions.Center()
		side = (roomCenter.X()-foot.X())*normal.X() + (roomCenter.Y()-foot.Y())*normal.Y()
	}
	if side < 0 {
		normal = orb.Point{-normal.X(), -normal.Y()}
	}

	next := p
	if alignRotation && e.settings.AlignToWalls {
		next.rotation = geometry.SnapAngle(wall.Angle(), e.settings.RotationStep)
		next.w, next.h = models.FootprintFor(el.Width, el.Depth, next.rotation)
	}

	cx := foot.X() + normal.X()*offset
	cy := foot.Y() + normal.Y()*offset
	next.x = cx - next.w/2
	next.y = cy - next.h/2
	return next, wall.WallNumber, true
}
