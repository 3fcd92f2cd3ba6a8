package interaction

import (
	"testing"
	"time"

	"room-planner/internal/planner/catalog"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/placement"
	"room-planner/internal/planner/walls"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newMachine() *Machine {
	return NewMachine(placement.NewEngine(models.DefaultSettings(), catalog.MustLoad()))
}

func kitchen() models.RoomState {
	state := models.NewRoomState(models.RoomKitchen, models.RoomDimensions{Width: 144, Height: 120, WallHeight: 96})
	state.Elements = []models.Element{
		{ID: "a", Type: "base-cabinet-24", X: 60, Y: 60, Width: 24, Depth: 24},
		{ID: "b", Type: "base-cabinet-24", X: 100, Y: 90, Width: 24, Depth: 24},
	}
	return state
}

func run(t *testing.T, m *Machine, room models.RoomState, inputs []Input) (models.RoomState, State) {
	t.Helper()
	s := Idle()
	for _, in := range inputs {
		var err error
		room, s, err = m.Step(room, s, in)
		require.NoError(t, err)
	}
	return room, s
}

func TestDragCommitsSnappedPosition(t *testing.T) {
	m := newMachine()
	room, s := run(t, m, kitchen(), []Input{
		{Kind: InputPointerDown, ElementID: "b", X: 110, Y: 100, At: t0},
		{Kind: InputPointerMove, X: 80, Y: 90, At: t0.Add(20 * time.Millisecond)},
		{Kind: InputPointerUp, X: 40, Y: 72, At: t0.Add(40 * time.Millisecond)},
	})

	assert.Equal(t, PhaseCommitted, s.Phase)
	assert.Nil(t, s.Drag)
	require.NotNil(t, s.Committed)
	assert.Equal(t, placement.SourceFixture, s.Committed.Source)

	b, _, _ := room.Element("b")
	assert.InDelta(t, 36, b.X, 1e-9)
	assert.InDelta(t, 62, b.Y, 1e-9)
}

func TestMoveUpdatesPreviewOnly(t *testing.T) {
	m := newMachine()
	room := kitchen()
	room2, s, err := m.Step(room, Idle(), Input{Kind: InputPointerDown, ElementID: "b", X: 110, Y: 100, At: t0})
	require.NoError(t, err)
	room2, s, err = m.Step(room2, s, Input{Kind: InputPointerMove, X: 90, Y: 100, At: t0})
	require.NoError(t, err)

	require.NotNil(t, s.Drag.Preview)
	assert.InDelta(t, 80, s.Drag.Preview.X, 1e-9)
	b, _, _ := room2.Element("b")
	assert.Equal(t, 100.0, b.X, "room is untouched until pointer-up")
}

func TestThrottleDoesNotChangeOutcome(t *testing.T) {
	path := [][2]float64{{105, 98}, {95, 95}, {80, 90}, {60, 80}, {45, 75}, {40, 72}}

	dense := []Input{{Kind: InputPointerDown, ElementID: "b", X: 110, Y: 100, At: t0}}
	sparse := []Input{{Kind: InputPointerDown, ElementID: "b", X: 110, Y: 100, At: t0}}
	for i, p := range path {
		dense = append(dense, Input{Kind: InputPointerMove, X: p[0], Y: p[1], At: t0.Add(time.Duration(i+1) * time.Millisecond)})
		sparse = append(sparse, Input{Kind: InputPointerMove, X: p[0], Y: p[1], At: t0.Add(time.Duration(i+1) * 100 * time.Millisecond)})
	}
	up := Input{Kind: InputPointerUp, X: 40, Y: 72, At: t0.Add(time.Second)}
	dense = append(dense, up)
	sparse = append(sparse, up)

	m := newMachine()
	roomDense, sDense := run(t, m, kitchen(), dense)
	roomSparse, sSparse := run(t, m, kitchen(), sparse)

	assert.Equal(t, roomSparse.Elements, roomDense.Elements)
	assert.Equal(t, sSparse.Committed, sDense.Committed)
}

func TestThrottleSkipsFastMoves(t *testing.T) {
	m := newMachine()
	room := kitchen()
	_, s, _ := m.Step(room, Idle(), Input{Kind: InputPointerDown, ElementID: "b", X: 110, Y: 100, At: t0})
	_, s, _ = m.Step(room, s, Input{Kind: InputPointerMove, X: 90, Y: 100, At: t0})
	_, s2, _ := m.Step(room, s, Input{Kind: InputPointerMove, X: 70, Y: 100, At: t0.Add(5 * time.Millisecond)})

	assert.Equal(t, s.Drag.Preview, s2.Drag.Preview)
}

func TestZeroDisplacementDiscardsDrag(t *testing.T) {
	m := newMachine()
	room, s := run(t, m, kitchen(), []Input{
		{Kind: InputPointerDown, ElementID: "b", X: 110, Y: 100, At: t0},
		{Kind: InputPointerMove, X: 80, Y: 100, At: t0.Add(20 * time.Millisecond)},
		{Kind: InputPointerUp, X: 110, Y: 100, At: t0.Add(40 * time.Millisecond)},
	})

	assert.Equal(t, PhaseCancelled, s.Phase)
	assert.Nil(t, s.Drag)
	assert.Nil(t, s.Committed)
	b, _, _ := room.Element("b")
	assert.Equal(t, 100.0, b.X)
}

func TestIllegalDropKeepsOrigin(t *testing.T) {
	m := newMachine()
	room := kitchen()
	room.Doors = []models.Door{{ID: "d1", WallNumber: models.WallTop, Position: 50, Width: 32}}

	room, s := run(t, m, room, []Input{
		{Kind: InputPointerDown, ElementID: "b", X: 110, Y: 100, At: t0},
		{Kind: InputPointerUp, X: 70, Y: 50, At: t0.Add(40 * time.Millisecond)},
	})

	assert.Equal(t, PhaseCancelled, s.Phase)
	assert.True(t, s.Rejected)
	b, _, _ := room.Element("b")
	assert.Equal(t, 100.0, b.X)
	assert.Equal(t, 90.0, b.Y)
}

func TestRoomSwitchResetsEverything(t *testing.T) {
	m := newMachine()
	room := kitchen()
	room, s, _ := m.Step(room, Idle(), Input{Kind: InputWallClick, X: 30, Y: 30})
	room, s, _ = m.Step(room, s, Input{Kind: InputPointerDown, ElementID: "a", X: 70, Y: 70, At: t0})
	require.NotNil(t, s.Draft)
	require.NotNil(t, s.Drag)

	_, s, err := m.Step(room, s, Input{Kind: InputRoomSwitch})
	require.NoError(t, err)
	assert.Equal(t, Idle(), s)
}

func TestCancelDiscardsDrag(t *testing.T) {
	m := newMachine()
	_, s := run(t, m, kitchen(), []Input{
		{Kind: InputPointerDown, ElementID: "a", X: 70, Y: 70, At: t0},
		{Kind: InputCancel},
	})
	assert.Equal(t, PhaseCancelled, s.Phase)
	assert.Nil(t, s.Drag)
}

func TestPointerDownOnMissingElement(t *testing.T) {
	_, s, err := newMachine().Step(kitchen(), Idle(), Input{Kind: InputPointerDown, ElementID: "zzz"})
	assert.ErrorIs(t, err, models.ErrStaleReference)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestWallDrawTwoClicks(t *testing.T) {
	m := newMachine()
	room := kitchen()

	room, s, err := m.Step(room, Idle(), Input{Kind: InputWallClick, X: 5, Y: 5})
	require.NoError(t, err)
	require.NotNil(t, s.Draft)
	assert.Equal(t, walls.SnapCorner, s.Draft.Start.Kind)

	_, hovered, err := m.Step(room, s, Input{Kind: InputWallHover, X: 100, Y: 4})
	require.NoError(t, err)
	require.NotNil(t, hovered.Draft.Hover)
	assert.Equal(t, walls.SnapEdge, hovered.Draft.Hover.Kind)
	assert.Nil(t, s.Draft.Hover, "hover does not leak into the previous state")

	// слишком короткая стена: черновик сохраняется для повторной попытки
	same, retry, err := m.Step(room, hovered, Input{Kind: InputWallClick, X: 10, Y: 0})
	assert.ErrorIs(t, err, models.ErrInvalidGeometry)
	assert.NotNil(t, retry.Draft)
	assert.Empty(t, same.CustomWalls)

	room, s, err = m.Step(room, retry, Input{Kind: InputWallClick, X: 100, Y: 4})
	require.NoError(t, err)
	assert.Nil(t, s.Draft)
	require.NotNil(t, s.LastWall)
	assert.Equal(t, 5, s.LastWall.WallNumber)
	assert.True(t, room.IsPresent(5))

	_, s, _ = m.Step(room, Idle(), Input{Kind: InputWallClick, X: 40, Y: 40})
	_, s, _ = m.Step(room, s, Input{Kind: InputWallCancel})
	assert.Nil(t, s.Draft)
}

func TestWallStartIsNotSnappedTwice(t *testing.T) {
	m := newMachine()
	room := kitchen()

	// (8,10) в 12.8 от угла: притягивается к грани левой стены
	room, s, err := m.Step(room, Idle(), Input{Kind: InputWallClick, X: 8, Y: 10})
	require.NoError(t, err)
	require.NotNil(t, s.Draft)
	assert.Equal(t, walls.SnappedPoint{X: 0, Y: 10, Kind: walls.SnapEdge, WallNumber: 4}, s.Draft.Start)

	room, s, err = m.Step(room, s, Input{Kind: InputWallClick, X: 80, Y: 60})
	require.NoError(t, err)
	require.NotNil(t, s.LastWall)
	assert.Equal(t, walls.SnappedPoint{X: 0, Y: 10, Kind: walls.SnapEdge, WallNumber: 4}, s.LastWall.Start)

	w, ok := room.Custom(s.LastWall.WallNumber)
	require.True(t, ok)
	assert.Equal(t, 0.0, w.X1)
	assert.Equal(t, 10.0, w.Y1)
}

func TestMoveWithoutTimestampAlwaysRecomputes(t *testing.T) {
	m := newMachine()
	room := kitchen()
	_, s, _ := m.Step(room, Idle(), Input{Kind: InputPointerDown, ElementID: "b", X: 110, Y: 100, At: t0})
	_, s, _ = m.Step(room, s, Input{Kind: InputPointerMove, X: 90, Y: 100, At: t0.Add(20 * time.Millisecond)})
	require.NotNil(t, s.Drag.Preview)
	assert.InDelta(t, 80, s.Drag.Preview.X, 1e-9)

	_, s, err := m.Step(room, s, Input{Kind: InputPointerMove, X: 115, Y: 75})
	require.NoError(t, err)
	require.NotNil(t, s.Drag.Preview)
	assert.InDelta(t, 105, s.Drag.Preview.X, 1e-9)

	_, s, _ = m.Step(room, s, Input{Kind: InputPointerMove, X: 90, Y: 100, At: t0.Add(21 * time.Millisecond)})
	assert.InDelta(t, 80, s.Drag.Preview.X, 1e-9, "timed moves are not throttled after an untimed one")
}

func TestUnknownTypeGetsNoPreview(t *testing.T) {
	m := newMachine()
	room := kitchen()
	room.Elements = append(room.Elements, models.Element{ID: "x", Type: "hot-tub", X: 10, Y: 90, Width: 24, Depth: 24})

	_, s, err := m.Step(room, Idle(), Input{Kind: InputPointerDown, ElementID: "x", X: 20, Y: 100, At: t0})
	require.NoError(t, err)
	_, s, err = m.Step(room, s, Input{Kind: InputPointerMove, X: 30, Y: 100, At: t0.Add(20 * time.Millisecond)})
	require.NoError(t, err)
	assert.Equal(t, PhaseDragging, s.Phase)
	assert.Nil(t, s.Drag.Preview)

	after, s, err := m.Step(room, s, Input{Kind: InputPointerUp, X: 30, Y: 100, At: t0.Add(40 * time.Millisecond)})
	assert.ErrorIs(t, err, models.ErrMissingCatalogEntry)
	assert.Equal(t, PhaseCancelled, s.Phase)
	x, _, _ := after.Element("x")
	assert.Equal(t, 10.0, x.X)
}
