package doors

import (
	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"

	"github.com/paulmach/orb"
)

// ============================================================
// Clearance Zones
// ============================================================

// ClearanceZone защищенная зона перед проемом. Никогда не сохраняется,
// пересчитывается из стен и дверей при каждом обращении.
// X/Y/Width/Height описывают AABB зоны; для повернутой зоны это
// описывающий прямоугольник углов Rect.
type ClearanceZone struct {
	DoorID     string                `json:"doorId"`
	WallNumber int                   `json:"wallNumber"`
	Rotated    bool                  `json:"rotated"`
	X          float64               `json:"x"`
	Y          float64               `json:"y"`
	Width      float64               `json:"width"`
	Height     float64               `json:"height"`
	Rect       *geometry.RotatedRect `json:"rect,omitempty"`
}

func (z ClearanceZone) Bound() orb.Bound {
	return geometry.RectBound(z.X, z.Y, z.Width, z.Height)
}

// Zones строит зоны для всех дверей на активных стенах.
// Двери на отсутствующих стенах пропускаются.
func Zones(state *models.RoomState, settings models.Settings) []ClearanceZone {
	zones := make([]ClearanceZone, 0, len(state.Doors))
	for _, d := range state.Doors {
		if z, ok := Zone(state, d, settings); ok {
			zones = append(zones, z)
		}
	}
	return zones
}

func Zone(state *models.RoomState, door models.Door, settings models.Settings) (ClearanceZone, bool) {
	if !state.IsPresent(door.WallNumber) {
		return ClearanceZone{}, false
	}
	if models.IsStandardWall(door.WallNumber) {
		return standardZone(state.Dimensions, door, settings), true
	}
	wall, _ := state.Custom(door.WallNumber)
	return customZone(state.Dimensions, wall, door, settings), true
}

// DoorCenter центр проема на стене.
func DoorCenter(state *models.RoomState, door models.Door, settings models.Settings) (orb.Point, bool) {
	if !state.IsPresent(door.WallNumber) {
		return orb.Point{}, false
	}
	dims := state.Dimensions
	p := door.Position / 100
	switch door.WallNumber {
	case models.WallTop:
		return orb.Point{alongStandard(dims.Width, p, settings), 0}, true
	case models.WallRight:
		return orb.Point{dims.Width, alongStandard(dims.Height, p, settings)}, true
	case models.WallBottom:
		return orb.Point{alongStandard(dims.Width, p, settings), dims.Height}, true
	case models.WallLeft:
		return orb.Point{0, alongStandard(dims.Height, p, settings)}, true
	}
	wall, _ := state.Custom(door.WallNumber)
	return geometry.PointAt(wall.Start(), wall.End(), p), true
}

// alongStandard координата центра двери вдоль стандартной стены.
// Отрисованная стена выходит за оба угла на StandardWallThickness.
func alongStandard(length, p float64, settings models.Settings) float64 {
	t := settings.StandardWallThickness
	return -t + p*(length+2*t)
}

func standardZone(dims models.RoomDimensions, door models.Door, settings models.Settings) ClearanceZone {
	depth := door.Width * settings.ClearanceDepthFactor
	width := door.Width * settings.ClearanceWidthFactor
	p := door.Position / 100

	z := ClearanceZone{DoorID: door.ID, WallNumber: door.WallNumber}
	switch door.WallNumber {
	case models.WallTop:
		z.X, z.Y = alongStandard(dims.Width, p, settings)-width/2, 0
		z.Width, z.Height = width, depth
	case models.WallBottom:
		z.X, z.Y = alongStandard(dims.Width, p, settings)-width/2, dims.Height-depth
		z.Width, z.Height = width, depth
	case models.WallRight:
		z.X, z.Y = dims.Width-depth, alongStandard(dims.Height, p, settings)-width/2
		z.Width, z.Height = depth, width
	case models.WallLeft:
		z.X, z.Y = 0, alongStandard(dims.Height, p, settings)-width/2
		z.Width, z.Height = depth, width
	}
	return z
}

// customZone выносит зону по нормали стены в сторону центра комнаты.
// Rect.Angle направление нормали: угол стены + 90° (или + 270°, если
// нормаль пришлось развернуть к центру).
func customZone(dims models.RoomDimensions, wall models.CustomWall, door models.Door, settings models.Settings) ClearanceZone {
	depth := door.Width * settings.ClearanceDepthFactor
	width := door.Width * settings.ClearanceWidthFactor

	center := geometry.PointAt(wall.Start(), wall.End(), door.Position/100)
	normal := geometry.Normal(geometry.Direction(wall.Start(), wall.End()))

	toRoom := orb.Point{dims.Center().X() - center.X(), dims.Center().Y() - center.Y()}
	if toRoom.X()*normal.X()+toRoom.Y()*normal.Y() < 0 {
		normal = orb.Point{-normal.X(), -normal.Y()}
	}

	offset := wall.Thickness/2 + depth/2
	rect := geometry.RotatedRect{
		Center: orb.Point{center.X() + normal.X()*offset, center.Y() + normal.Y()*offset},
		Width:  width,
		Height: depth,
		Angle:  geometry.Heading(normal),
	}

	b := rect.Bound()
	return ClearanceZone{
		DoorID:     door.ID,
		WallNumber: door.WallNumber,
		Rotated:    true,
		X:          b.Min.X(),
		Y:          b.Min.Y(),
		Width:      b.Max.X() - b.Min.X(),
		Height:     b.Max.Y() - b.Min.Y(),
		Rect:       &rect,
	}
}
