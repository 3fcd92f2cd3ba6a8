package walls

import (
	"testing"

	"room-planner/internal/planner/models"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoom() models.RoomState {
	return models.NewRoomState(models.RoomKitchen, models.RoomDimensions{Width: 144, Height: 120, WallHeight: 96})
}

func TestAddCustomWallSnapsStartToCorner(t *testing.T) {
	settings := models.DefaultSettings()
	state, res, err := AddCustomWall(newRoom(), WallRequest{X1: 5, Y1: 5, X2: 100, Y2: 0}, settings)
	require.NoError(t, err)

	assert.Equal(t, SnapCorner, res.Start.Kind)
	assert.Equal(t, orb.Point{0, 0}, res.Start.Point())
	assert.Equal(t, 5, res.WallNumber)

	w, ok := state.Custom(5)
	require.True(t, ok)
	assert.Equal(t, 0.0, w.X1)
	assert.Equal(t, 0.0, w.Y1)
	assert.Equal(t, settings.DefaultWallThickness, w.Thickness)
	assert.True(t, state.IsPresent(5))
	assert.Contains(t, state.AllAvailableWalls, 5)
	assert.NotContains(t, state.OriginalWalls, 5)
}

func TestEndpointBeatsCloserCorner(t *testing.T) {
	state := newRoom()
	state.RegisterCustom(models.CustomWall{WallNumber: 5, X1: 12, Y1: 8, X2: 12, Y2: 80, Thickness: 6})

	p := SnapEndpoint(&state, orb.Point{4, 4}, models.DefaultSettings())
	assert.Equal(t, SnapWallEnd, p.Kind)
	assert.Equal(t, 5, p.WallNumber)
	assert.Equal(t, orb.Point{12, 8}, p.Point())
}

func TestEndpointTieBreakIsStable(t *testing.T) {
	state := newRoom()
	state.RegisterCustom(models.CustomWall{WallNumber: 6, X1: 60, Y1: 50, X2: 60, Y2: 100})
	state.RegisterCustom(models.CustomWall{WallNumber: 5, X1: 50, Y1: 50, X2: 50, Y2: 100})

	for i := 0; i < 20; i++ {
		p := SnapEndpoint(&state, orb.Point{55, 50}, models.DefaultSettings())
		require.Equal(t, 5, p.WallNumber)
		require.Equal(t, orb.Point{50, 50}, p.Point())
	}
}

func TestSnapToStandardEdgeOnlyWhenPresent(t *testing.T) {
	state := newRoom()
	settings := models.DefaultSettings()

	p := SnapEndpoint(&state, orb.Point{70, 6}, settings)
	assert.Equal(t, SnapEdge, p.Kind)
	assert.Equal(t, orb.Point{70, 0}, p.Point())

	state.DeactivateStandard(models.WallTop)
	p = SnapEndpoint(&state, orb.Point{70, 6}, settings)
	assert.Equal(t, SnapNone, p.Kind)
	assert.Equal(t, orb.Point{70, 6}, p.Point())
}

func TestShortWallRejected(t *testing.T) {
	state := newRoom()
	next, _, err := AddCustomWall(state, WallRequest{X1: 40, Y1: 40, X2: 50, Y2: 40}, models.DefaultSettings())
	assert.ErrorIs(t, err, models.ErrInvalidGeometry)
	assert.Empty(t, next.CustomWalls)
	assert.Equal(t, state.Walls, next.Walls)
}

func TestWallNumbersIncrement(t *testing.T) {
	settings := models.DefaultSettings()
	state, r1, err := AddCustomWall(newRoom(), WallRequest{X1: 40, Y1: 40, X2: 40, Y2: 90}, settings)
	require.NoError(t, err)
	state, r2, err := AddCustomWall(state, WallRequest{X1: 90, Y1: 40, X2: 90, Y2: 90, ExistedPrior: true}, settings)
	require.NoError(t, err)

	assert.Equal(t, 5, r1.WallNumber)
	assert.Equal(t, 6, r2.WallNumber)
	assert.Contains(t, state.OriginalWalls, 6)
}

func TestCrossingsReported(t *testing.T) {
	settings := models.DefaultSettings()
	state, _, err := AddCustomWall(newRoom(), WallRequest{X1: 70, Y1: 30, X2: 70, Y2: 90}, settings)
	require.NoError(t, err)

	_, res, err := AddCustomWall(state, WallRequest{X1: 40, Y1: 60, X2: 100, Y2: 60}, settings)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, res.Crossings)
}

func TestRotateCustomWallKeepsMidpointAndLength(t *testing.T) {
	state := newRoom()
	state.RegisterCustom(models.CustomWall{WallNumber: 5, X1: 20, Y1: 60, X2: 80, Y2: 60, Thickness: 6})

	next, err := RotateCustomWall(state, 5, 90)
	require.NoError(t, err)

	w, _ := next.Custom(5)
	assert.InDelta(t, 50, w.X1, 1e-9)
	assert.InDelta(t, 30, w.Y1, 1e-9)
	assert.InDelta(t, 50, w.X2, 1e-9)
	assert.InDelta(t, 90, w.Y2, 1e-9)
	assert.InDelta(t, 60, w.Length(), 1e-9)

	again, err := RotateCustomWall(next, 5, 90)
	require.NoError(t, err)
	w2, _ := again.Custom(5)
	assert.InDelta(t, w.X1, w2.X1, 1e-9, "angle is absolute, not cumulative")

	orig, _ := state.Custom(5)
	assert.Equal(t, 20.0, orig.X1, "input state untouched")

	_, err = RotateCustomWall(state, 7, 45)
	assert.ErrorIs(t, err, models.ErrStaleReference)
}

func TestDeleteCustomWallCascadesDoors(t *testing.T) {
	state := newRoom()
	state.RegisterCustom(models.CustomWall{WallNumber: 5, X1: 20, Y1: 60, X2: 80, Y2: 60, Doors: []string{"d1"}})
	state.Doors = []models.Door{{ID: "d1", WallNumber: 5, Position: 50, Width: 30}}

	next, removed, err := DeleteCustomWall(state, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, removed)
	assert.Empty(t, next.Doors)
	assert.Equal(t, 0, next.References(5))

	_, _, err = DeleteCustomWall(next, 5)
	assert.ErrorIs(t, err, models.ErrStaleReference)
	_, _, err = DeleteCustomWall(next, models.WallTop)
	assert.ErrorIs(t, err, models.ErrInvalidGeometry)
}

func TestRemoveStandardWallRequiresConfirmation(t *testing.T) {
	settings := models.DefaultSettings()
	state := newRoom()
	state.Elements = []models.Element{
		{ID: "against-top", X: 10, Y: 0, Width: 24, Depth: 24},
		{ID: "middle", X: 60, Y: 50, Width: 24, Depth: 24},
	}
	state.Materials["against-top"] = "oak"
	state.Doors = []models.Door{{ID: "d1", WallNumber: models.WallTop, Position: 80, Width: 30}}

	same, affected, err := RemoveStandardWall(state, models.WallTop, false, settings)
	assert.ErrorIs(t, err, models.ErrConfirmationRequired)
	assert.Equal(t, []string{"against-top"}, affected)
	assert.True(t, same.IsPresent(models.WallTop))
	assert.Len(t, same.Elements, 2)

	next, affected, err := RemoveStandardWall(state, models.WallTop, true, settings)
	require.NoError(t, err)
	assert.Equal(t, []string{"against-top"}, affected)
	assert.False(t, next.IsPresent(models.WallTop))
	assert.Contains(t, next.RemovedWalls, models.WallTop)
	require.Len(t, next.Elements, 1)
	assert.Equal(t, "middle", next.Elements[0].ID)
	assert.Empty(t, next.Materials)
	assert.Empty(t, next.Doors)

	back, err := AddStandardWall(next, models.WallTop)
	require.NoError(t, err)
	assert.True(t, back.IsPresent(models.WallTop))
	assert.NotContains(t, back.RemovedWalls, models.WallTop)
}
