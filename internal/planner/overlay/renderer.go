package overlay

import (
	"fmt"
	"strconv"
	"strings"

	"room-planner/internal/planner/doors"
	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"

	"github.com/paulmach/orb"
)

// ============================================================
// Renderer
// ============================================================

// Renderer рисует отладочный слой комнаты: стены, проемы, зоны
// и модули. Оформление не входит в задачу, только геометрия.
type Renderer struct {
	settings models.Settings
}

func NewRenderer(settings models.Settings) *Renderer {
	return &Renderer{settings: settings}
}

// Render собирает SVG для состояния комнаты.
func (r *Renderer) Render(state *models.RoomState) (string, error) {
	if state == nil {
		return "", fmt.Errorf("room state is nil")
	}
	if err := state.Dimensions.Validate(); err != nil {
		return "", err
	}

	t := r.settings.StandardWallThickness
	width, height := state.Dimensions.Width, state.Dimensions.Height

	var elements []string
	elements = append(elements, r.renderStandardWalls(state)...)
	elements = append(elements, r.renderCustomWalls(state)...)
	elements = append(elements, r.renderZones(state)...)
	elements = append(elements, r.renderDoors(state)...)
	elements = append(elements, r.renderElements(state)...)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`,
		formatFloat(width+2*t), formatFloat(height+2*t),
		formatFloat(-t), formatFloat(-t), formatFloat(width+2*t), formatFloat(height+2*t)))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// ============================================================
// Walls
// ============================================================

// renderStandardWalls стена лежит снаружи комнаты и выходит за углы
// на толщину, как и при расчете центра двери.
func (r *Renderer) renderStandardWalls(state *models.RoomState) []string {
	var out []string
	t := r.settings.StandardWallThickness
	w, h := state.Dimensions.Width, state.Dimensions.Height

	for _, n := range models.StandardWalls() {
		if !state.IsPresent(n) {
			continue
		}
		var b orb.Bound
		switch n {
		case models.WallTop:
			b = geometry.RectBound(-t, -t, w+2*t, t)
		case models.WallRight:
			b = geometry.RectBound(w, -t, t, h+2*t)
		case models.WallBottom:
			b = geometry.RectBound(-t, h, w+2*t, t)
		case models.WallLeft:
			b = geometry.RectBound(-t, -t, t, h+2*t)
		}
		out = append(out, rect(fmt.Sprintf("wall-%d", n), b, `fill="#444" stroke="none"`))
	}
	return out
}

func (r *Renderer) renderCustomWalls(state *models.RoomState) []string {
	var out []string
	for _, w := range state.PresentCustomWalls() {
		out = append(out, fmt.Sprintf(`<line id="wall-%d" x1="%s" y1="%s" x2="%s" y2="%s" stroke="#444" stroke-width="%s" />`,
			w.WallNumber, formatFloat(w.X1), formatFloat(w.Y1), formatFloat(w.X2), formatFloat(w.Y2), formatFloat(w.Thickness)))
	}
	return out
}

// ============================================================
// Doors & zones
// ============================================================

func (r *Renderer) renderDoors(state *models.RoomState) []string {
	var out []string
	for _, d := range state.Doors {
		center, ok := doors.DoorCenter(state, d, r.settings)
		if !ok {
			continue
		}
		a, b := r.doorSpan(state, d, center)
		out = append(out, fmt.Sprintf(`<line id="door-%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="#d62728" stroke-width="2" />`,
			d.ID, formatFloat(a.X()), formatFloat(a.Y()), formatFloat(b.X()), formatFloat(b.Y())))
	}
	return out
}

// doorSpan проем как отрезок шириной двери вдоль стены.
func (r *Renderer) doorSpan(state *models.RoomState, d models.Door, center orb.Point) (orb.Point, orb.Point) {
	var dir orb.Point
	switch d.WallNumber {
	case models.WallTop, models.WallBottom:
		dir = orb.Point{1, 0}
	case models.WallRight, models.WallLeft:
		dir = orb.Point{0, 1}
	default:
		w, _ := state.Custom(d.WallNumber)
		dir = geometry.Direction(w.Start(), w.End())
	}
	half := d.Width / 2
	return orb.Point{center.X() - dir.X()*half, center.Y() - dir.Y()*half},
		orb.Point{center.X() + dir.X()*half, center.Y() + dir.Y()*half}
}

func (r *Renderer) renderZones(state *models.RoomState) []string {
	var out []string
	for _, z := range doors.Zones(state, r.settings) {
		id := "zone-" + z.DoorID
		style := `fill="#d62728" fill-opacity="0.15" stroke="#d62728" stroke-dasharray="4 2"`
		if z.Rect == nil {
			out = append(out, rect(id, z.Bound(), style))
			continue
		}
		corners := z.Rect.Corners()
		out = append(out, polygon(id, corners[:], style))
		out = append(out, rect(id+"-bbox", z.Bound(), `fill="none" stroke="#d62728" stroke-opacity="0.4"`))
	}
	return out
}

// ============================================================
// Elements
// ============================================================

func (r *Renderer) renderElements(state *models.RoomState) []string {
	var out []string
	for _, e := range state.Elements {
		stroke := "#1f77b4"
		if e.Category == "wall" {
			stroke = "#2ca02c"
		}
		out = append(out, rect("element-"+e.ID, e.Bound(), fmt.Sprintf(`fill="none" stroke="%s"`, stroke)))
	}
	return out
}

// ============================================================
// Formatting helpers
// ============================================================

func rect(id string, b orb.Bound, style string) string {
	return fmt.Sprintf(`<rect id="%s" x="%s" y="%s" width="%s" height="%s" %s />`,
		id, formatFloat(b.Min.X()), formatFloat(b.Min.Y()),
		formatFloat(b.Max.X()-b.Min.X()), formatFloat(b.Max.Y()-b.Min.Y()), style)
}

func polygon(id string, points []orb.Point, style string) string {
	var path strings.Builder
	path.WriteString(`<path id="`)
	path.WriteString(id)
	path.WriteString(`" d="M `)
	path.WriteString(formatPoint(points[0]))
	for _, p := range points[1:] {
		path.WriteString(" L ")
		path.WriteString(formatPoint(p))
	}
	path.WriteString(` Z" `)
	path.WriteString(style)
	path.WriteString(` />`)
	return path.String()
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', 2, 64)
}

func formatPoint(p orb.Point) string {
	return formatFloat(p.X()) + " " + formatFloat(p.Y())
}
