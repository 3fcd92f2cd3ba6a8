package models

import (
	"fmt"
	"math"

	"room-planner/internal/planner/geometry"

	"github.com/paulmach/orb"
)

// ============================================================
// Room
// ============================================================

type RoomKind string

const (
	RoomKitchen  RoomKind = "kitchen"
	RoomBathroom RoomKind = "bathroom"
)

func (k RoomKind) Valid() bool {
	return k == RoomKitchen || k == RoomBathroom
}

type RoomDimensions struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	WallHeight float64 `json:"wallHeight"`
}

// Validate требует положительные конечные размеры.
func (d RoomDimensions) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"width", d.Width},
		{"height", d.Height},
		{"wallHeight", d.WallHeight},
	}
	for _, f := range fields {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: room %s must be positive, got %v", ErrInvalidGeometry, f.name, f.value)
		}
	}
	return nil
}

// Corners углы комнаты по часовой стрелке от левого верхнего.
func (d RoomDimensions) Corners() [4]orb.Point {
	return [4]orb.Point{
		{0, 0},
		{d.Width, 0},
		{d.Width, d.Height},
		{0, d.Height},
	}
}

func (d RoomDimensions) Center() orb.Point {
	return orb.Point{d.Width / 2, d.Height / 2}
}

// Contains true для точек внутри комнаты или на ее границе.
func (d RoomDimensions) Contains(p orb.Point) bool {
	return p.X() > -geometry.Epsilon && p.Y() > -geometry.Epsilon &&
		p.X() < d.Width+geometry.Epsilon && p.Y() < d.Height+geometry.Epsilon
}

// ============================================================
// Walls
// ============================================================

// Номера стандартных стен. Пользовательские стены нумеруются с FirstCustomWall.
const (
	WallTop    = 1
	WallRight  = 2
	WallBottom = 3
	WallLeft   = 4

	FirstCustomWall = 5
)

// StandardWalls набор активных стен по умолчанию.
func StandardWalls() []int {
	return []int{WallTop, WallRight, WallBottom, WallLeft}
}

func IsStandardWall(n int) bool {
	return n >= WallTop && n <= WallLeft
}

// InnerFace внутренняя грань стандартной стены.
func (d RoomDimensions) InnerFace(n int) (orb.Point, orb.Point, bool) {
	switch n {
	case WallTop:
		return orb.Point{0, 0}, orb.Point{d.Width, 0}, true
	case WallRight:
		return orb.Point{d.Width, 0}, orb.Point{d.Width, d.Height}, true
	case WallBottom:
		return orb.Point{0, d.Height}, orb.Point{d.Width, d.Height}, true
	case WallLeft:
		return orb.Point{0, 0}, orb.Point{0, d.Height}, true
	}
	return orb.Point{}, orb.Point{}, false
}

type CustomWall struct {
	ID           string   `json:"id"`
	WallNumber   int      `json:"wallNumber"`
	X1           float64  `json:"x1"`
	Y1           float64  `json:"y1"`
	X2           float64  `json:"x2"`
	Y2           float64  `json:"y2"`
	Thickness    float64  `json:"thickness"`
	ExistedPrior bool     `json:"existedPrior"`
	Doors        []string `json:"doors"`
}

func (w CustomWall) Start() orb.Point { return orb.Point{w.X1, w.Y1} }
func (w CustomWall) End() orb.Point   { return orb.Point{w.X2, w.Y2} }

func (w CustomWall) Length() float64 {
	return geometry.Distance(w.Start(), w.End())
}

func (w CustomWall) Midpoint() orb.Point {
	return geometry.PointAt(w.Start(), w.End(), 0.5)
}

// Angle направление от начала к концу в градусах.
func (w CustomWall) Angle() float64 {
	return geometry.Heading(geometry.Direction(w.Start(), w.End()))
}

// ============================================================
// Doors
// ============================================================

type Door struct {
	ID         string  `json:"id"`
	WallNumber int     `json:"wallNumber"`
	Position   float64 `json:"position"` // 0..100 вдоль стены
	Width      float64 `json:"width"`
	Type       string  `json:"type"`
}

// ============================================================
// Elements
// ============================================================

type FixtureType string

type Element struct {
	ID          string      `json:"id"`
	Type        FixtureType `json:"type"`
	Category    string      `json:"category"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Width       float64     `json:"width"`
	Depth       float64     `json:"depth"`
	Rotation    float64     `json:"rotation"`
	MountHeight float64     `json:"mountHeight"`
}

// QuarterTurned true, если поворот ближе всего к 90 или 270 градусам.
func QuarterTurned(rotation float64) bool {
	quarter := int(math.Round(geometry.NormalizeAngle(rotation)/90)) % 4
	return quarter == 1 || quarter == 3
}

// Footprint эффективные ширина/глубина в плане (с учетом поворота).
func (e Element) Footprint() (float64, float64) {
	return FootprintFor(e.Width, e.Depth, e.Rotation)
}

func FootprintFor(width, depth, rotation float64) (float64, float64) {
	if QuarterTurned(rotation) {
		return depth, width
	}
	return width, depth
}

func (e Element) Bound() orb.Bound {
	w, h := e.Footprint()
	return geometry.RectBound(e.X, e.Y, w, h)
}

func (e Element) Center() orb.Point {
	w, h := e.Footprint()
	return orb.Point{e.X + w/2, e.Y + h/2}
}
