package collision

import (
	"testing"

	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog map[models.FixtureType]bool

func (c fakeCatalog) Has(t models.FixtureType) bool { return c[t] }

func room() models.RoomState {
	return models.NewRoomState(models.RoomKitchen, models.RoomDimensions{Width: 144, Height: 120, WallHeight: 96})
}

func TestHitsWallDistanceThreshold(t *testing.T) {
	wall := models.CustomWall{WallNumber: 5, X1: 0, Y1: 60, X2: 100, Y2: 60, Thickness: 6}

	// центр на 15 от оси стены, порог (6+24)/2 = 15: касание не коллизия
	touching := geometry.RectBound(38, 63, 24, 24)
	assert.False(t, HitsWall(touching, wall, 0.1))

	overlapping := geometry.RectBound(38, 62, 24, 24)
	assert.True(t, HitsWall(overlapping, wall, 0.1))
}

func TestHitsWallSpanTolerance(t *testing.T) {
	wall := models.CustomWall{WallNumber: 5, X1: 0, Y1: 60, X2: 100, Y2: 60, Thickness: 6}

	// центр в t=1.05, внутри допуска
	inside := geometry.RectBound(93, 50, 24, 24)
	assert.True(t, HitsWall(inside, wall, 0.1))

	// центр в t=1.2
	beyond := geometry.RectBound(108, 50, 24, 24)
	assert.False(t, HitsWall(beyond, wall, 0.1))
}

func TestHitsRotatedWall(t *testing.T) {
	wall := models.CustomWall{WallNumber: 5, X1: 20, Y1: 100, X2: 100, Y2: 20, Thickness: 6}
	assert.True(t, HitsWall(geometry.RectBound(48, 48, 24, 24), wall, 0.1))
	assert.False(t, HitsWall(geometry.RectBound(0, 0, 24, 24), wall, 0.1))
}

func TestCheckerIgnoresAbsentWalls(t *testing.T) {
	state := room()
	state.RegisterCustom(models.CustomWall{WallNumber: 5, X1: 0, Y1: 60, X2: 100, Y2: 60, Thickness: 6})
	settings := models.DefaultSettings()

	b := geometry.RectBound(40, 50, 24, 24)
	n, hit := NewChecker(&state, settings).WallCollision(b)
	assert.True(t, hit)
	assert.Equal(t, 5, n)

	state.DeleteCustom(5)
	assert.True(t, NewChecker(&state, settings).Legal(b))
}

func TestZoneCollisionStrictOverlap(t *testing.T) {
	state := room()
	state.Doors = []models.Door{{ID: "d1", WallNumber: models.WallTop, Position: 50, Width: 32}}
	c := NewChecker(&state, models.DefaultSettings())

	// зона x 56..88, y 0..48
	id, hit := c.ZoneCollision(geometry.RectBound(60, 40, 24, 24))
	assert.True(t, hit)
	assert.Equal(t, "d1", id)

	_, hit = c.ZoneCollision(geometry.RectBound(60, 48, 24, 24))
	assert.False(t, hit, "touching the zone edge is allowed")

	_, hit = c.ZoneCollision(geometry.RectBound(32, 0, 24, 24))
	assert.False(t, hit)
}

func TestAuditReportsEveryViolation(t *testing.T) {
	state := room()
	state.RegisterCustom(models.CustomWall{WallNumber: 5, X1: 0, Y1: 60, X2: 100, Y2: 60, Thickness: 6})
	state.Doors = []models.Door{{ID: "d1", WallNumber: models.WallTop, Position: 50, Width: 32}}
	state.Elements = []models.Element{
		{ID: "ok", Type: "base", X: 110, Y: 90, Width: 24, Depth: 24},
		{ID: "in-wall", Type: "base", X: 10, Y: 50, Width: 24, Depth: 24},
		{ID: "in-zone", Type: "base", X: 60, Y: 10, Width: 20, Depth: 20},
		{ID: "unknown", Type: "ghost", X: 10, Y: 50, Width: 24, Depth: 24},
	}

	got := Audit(&state, models.DefaultSettings(), fakeCatalog{"base": true})
	assert.Equal(t, []Violation{
		{ElementID: "in-wall", Kind: ViolationWall, WallNumber: 5},
		{ElementID: "in-zone", Kind: ViolationClearance, DoorID: "d1"},
	}, got)
}

func TestAuditReportsElementsOutsideRoom(t *testing.T) {
	state := room()
	state.Elements = []models.Element{
		{ID: "flush", Type: "base", X: 120, Y: 96, Width: 24, Depth: 24},
		{ID: "past-right", Type: "base", X: 130, Y: 40, Width: 24, Depth: 24},
		// повернутый модуль 36x24 занимает 24x36 и вылезает снизу
		{ID: "turned", Type: "base", X: 0, Y: 90, Width: 36, Depth: 24, Rotation: 90},
	}

	got := Audit(&state, models.DefaultSettings(), fakeCatalog{"base": true})
	assert.Equal(t, []Violation{
		{ElementID: "past-right", Kind: ViolationBounds},
		{ElementID: "turned", Kind: ViolationBounds},
	}, got)
}

func TestFixtureIndexNearKeepsElementOrder(t *testing.T) {
	elements := []models.Element{
		{ID: "c", Type: "base", X: 60, Y: 0, Width: 24, Depth: 24},
		{ID: "a", Type: "base", X: 0, Y: 0, Width: 24, Depth: 24},
		{ID: "far", Type: "base", X: 110, Y: 90, Width: 24, Depth: 24},
		{ID: "ghost", Type: "ghost", X: 30, Y: 0, Width: 24, Depth: 24},
		{ID: "self", Type: "base", X: 30, Y: 0, Width: 24, Depth: 24},
	}
	ix := NewFixtureIndex(elements, fakeCatalog{"base": true})
	assert.Equal(t, 4, ix.Size())

	near := ix.Near(geometry.RectBound(30, 0, 24, 24), 8, "self")
	require.Len(t, near, 2)
	assert.Equal(t, "c", near[0].ID)
	assert.Equal(t, "a", near[1].ID)
}
