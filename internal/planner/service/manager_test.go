package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"room-planner/internal/planner/catalog"
	"room-planner/internal/planner/doors"
	"room-planner/internal/planner/interaction"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/placement"
	"room-planner/internal/planner/repository"
	"room-planner/internal/planner/walls"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *repository.Repository {
	t.Helper()
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newManager(t *testing.T, store Store) *Manager {
	t.Helper()
	return NewManager(store, catalog.MustLoad(), models.DefaultSettings())
}

func ptr(v float64) *float64 { return &v }

func createProject(t *testing.T, m *Manager) string {
	t.Helper()
	ws, err := m.CreateProject(context.Background(), CreateProjectRequest{Name: "Main St"})
	require.NoError(t, err)
	return ws.Project.ID
}

func TestCreateProjectDefaults(t *testing.T) {
	m := newManager(t, openStore(t))

	ws, err := m.CreateProject(context.Background(), CreateProjectRequest{
		Name:     "Main St",
		Bathroom: &models.RoomDimensions{Width: 90, Height: 80, WallHeight: 96},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ws.Project.ID)
	assert.Equal(t, models.RoomKitchen, ws.Project.ActiveRoom)
	assert.Equal(t, interaction.PhaseIdle, ws.Interaction.Phase)
	require.Len(t, ws.Rooms, 2)
	assert.Equal(t, 144.0, ws.Rooms[models.RoomKitchen].Dimensions.Width)
	assert.Equal(t, 90.0, ws.Rooms[models.RoomBathroom].Dimensions.Width)
}

func TestCreateProjectRejectsBadDimensions(t *testing.T) {
	m := newManager(t, openStore(t))
	_, err := m.CreateProject(context.Background(), CreateProjectRequest{
		Kitchen: &models.RoomDimensions{Width: -1, Height: 80, WallHeight: 96},
	})
	assert.ErrorIs(t, err, models.ErrInvalidGeometry)
}

func TestUnknownProjectAndRoom(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, openStore(t))

	_, err := m.Room(ctx, "nope", models.RoomKitchen)
	assert.ErrorIs(t, err, ErrUnknownProject)

	id := createProject(t, m)
	_, err = m.Room(ctx, id, "garage")
	assert.ErrorIs(t, err, ErrUnknownRoom)

	_, err = m.SwitchRoom(ctx, id, "garage")
	assert.ErrorIs(t, err, ErrUnknownRoom)
}

func TestRoomsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	m := newManager(t, store)
	id := createProject(t, m)

	_, res, err := m.AddElement(ctx, id, models.RoomKitchen, placement.AddRequest{Type: "base-cabinet-24"})
	require.NoError(t, err)
	assert.InDelta(t, 60, res.Element.X, 1e-9)
	assert.InDelta(t, 48, res.Element.Y, 1e-9)

	_, err = m.SetMaterial(ctx, id, models.RoomKitchen, res.Element.ID, "oak")
	require.NoError(t, err)

	reloaded := newManager(t, store)
	room, err := reloaded.Room(ctx, id, models.RoomKitchen)
	require.NoError(t, err)
	require.Len(t, room.Elements, 1)
	assert.Equal(t, res.Element, room.Elements[0])
	assert.Equal(t, "oak", room.Materials[res.Element.ID])
}

func TestSetDimensionsKeepsContents(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, openStore(t))
	id := createProject(t, m)

	_, _, err := m.AddElement(ctx, id, models.RoomKitchen, placement.AddRequest{Type: "base-cabinet-24"})
	require.NoError(t, err)

	change, err := m.SetDimensions(ctx, id, models.RoomKitchen, models.RoomDimensions{Width: 200, Height: 150, WallHeight: 96})
	require.NoError(t, err)
	assert.Equal(t, 200.0, change.Room.Dimensions.Width)
	assert.Len(t, change.Room.Elements, 1)
	assert.Empty(t, change.Moved)
	assert.Empty(t, change.Violations)

	change, err = m.SetDimensions(ctx, id, models.RoomKitchen, models.RoomDimensions{Width: 0, Height: 150, WallHeight: 96})
	assert.ErrorIs(t, err, models.ErrInvalidGeometry)
	assert.Equal(t, 200.0, change.Room.Dimensions.Width)
}

func TestShrinkPullsElementsInside(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, openStore(t))
	id := createProject(t, m)

	_, res, err := m.AddElement(ctx, id, models.RoomKitchen, placement.AddRequest{Type: "base-cabinet-24", X: ptr(120), Y: ptr(48)})
	require.NoError(t, err)
	require.Equal(t, 120.0, res.Element.X)

	change, err := m.SetDimensions(ctx, id, models.RoomKitchen, models.RoomDimensions{Width: 100, Height: 120, WallHeight: 96})
	require.NoError(t, err)
	assert.Equal(t, []string{res.Element.ID}, change.Moved)
	assert.Empty(t, change.Violations)
	require.Len(t, change.Room.Elements, 1)
	assert.Equal(t, 76.0, change.Room.Elements[0].X)
	assert.Equal(t, 48.0, change.Room.Elements[0].Y)

	stored, err := m.Room(ctx, id, models.RoomKitchen)
	require.NoError(t, err)
	assert.Equal(t, 76.0, stored.Elements[0].X)
}

func TestShrinkCannotCutCustomWall(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, openStore(t))
	id := createProject(t, m)

	_, err := m.AddCustomWall(ctx, id, models.RoomKitchen, walls.WallRequest{X1: 20, Y1: 100, X2: 120, Y2: 100})
	require.NoError(t, err)

	change, err := m.SetDimensions(ctx, id, models.RoomKitchen, models.RoomDimensions{Width: 100, Height: 120, WallHeight: 96})
	assert.ErrorIs(t, err, models.ErrIllegalPlacement)
	assert.Equal(t, 144.0, change.Room.Dimensions.Width)

	_, err = m.SetDimensions(ctx, id, models.RoomKitchen, models.RoomDimensions{Width: 120, Height: 120, WallHeight: 96})
	assert.NoError(t, err, "an endpoint on the new wall is still inside")
}

func TestRemoveStandardWallNeedsConfirmation(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, openStore(t))
	id := createProject(t, m)

	_, res, err := m.AddElement(ctx, id, models.RoomKitchen, placement.AddRequest{Type: "base-cabinet-24", X: ptr(0), Y: ptr(0)})
	require.NoError(t, err)

	change, err := m.RemoveStandardWall(ctx, id, models.RoomKitchen, models.WallTop, false)
	assert.ErrorIs(t, err, models.ErrConfirmationRequired)
	assert.Equal(t, []string{res.Element.ID}, change.Affected)

	room, err := m.Room(ctx, id, models.RoomKitchen)
	require.NoError(t, err)
	assert.Len(t, room.Elements, 1)
	assert.True(t, room.IsPresent(models.WallTop))

	change, err = m.RemoveStandardWall(ctx, id, models.RoomKitchen, models.WallTop, true)
	require.NoError(t, err)
	assert.Empty(t, change.Room.Elements)
	assert.False(t, change.Room.IsPresent(models.WallTop))
	assert.Empty(t, change.Violations)

	change, err = m.AddStandardWall(ctx, id, models.RoomKitchen, models.WallTop)
	require.NoError(t, err)
	assert.True(t, change.Room.IsPresent(models.WallTop))
}

func TestDeleteCustomWallCascadesDoors(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, openStore(t))
	id := createProject(t, m)

	change, err := m.AddCustomWall(ctx, id, models.RoomKitchen, walls.WallRequest{X1: 30, Y1: 30, X2: 30, Y2: 90})
	require.NoError(t, err)
	require.NotNil(t, change.Wall)
	assert.Equal(t, 5, change.Wall.WallNumber)

	door, err := m.AddDoor(ctx, id, models.RoomKitchen, doors.DoorRequest{WallNumber: 5, Position: 50, Width: 20})
	require.NoError(t, err)
	require.NotNil(t, door.Door)

	zones, err := m.Clearance(ctx, id, models.RoomKitchen)
	require.NoError(t, err)
	assert.Len(t, zones, 1)

	change, err = m.DeleteCustomWall(ctx, id, models.RoomKitchen, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{door.Door.ID}, change.Affected)
	assert.Empty(t, change.Room.Doors)
	assert.Empty(t, change.Room.CustomWalls)

	_, err = m.DeleteCustomWall(ctx, id, models.RoomKitchen, 5)
	assert.ErrorIs(t, err, models.ErrStaleReference)
}

func TestDoorLifecycleAndOverlay(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, openStore(t))
	id := createProject(t, m)

	added, err := m.AddDoor(ctx, id, models.RoomKitchen, doors.DoorRequest{WallNumber: models.WallTop, Position: 50, Width: 32})
	require.NoError(t, err)
	doorID := added.Door.ID

	updated, err := m.UpdateDoor(ctx, id, models.RoomKitchen, doorID, 25, 30)
	require.NoError(t, err)
	require.NotNil(t, updated.Door)
	assert.Equal(t, 25.0, updated.Door.Position)

	svg, err := m.Overlay(ctx, id, models.RoomKitchen)
	require.NoError(t, err)
	assert.Contains(t, svg, "zone-"+doorID)
	assert.Contains(t, svg, "door-"+doorID)

	room, err := m.DeleteDoor(ctx, id, models.RoomKitchen, doorID)
	require.NoError(t, err)
	assert.Empty(t, room.Doors)

	_, err = m.UpdateDoor(ctx, id, models.RoomKitchen, doorID, 25, 30)
	assert.ErrorIs(t, err, models.ErrStaleReference)
}

func TestElementOperations(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, openStore(t))
	id := createProject(t, m)

	_, res, err := m.AddElement(ctx, id, models.RoomKitchen, placement.AddRequest{Type: "base-cabinet-24"})
	require.NoError(t, err)
	elID := res.Element.ID

	moved, err := m.MoveElement(ctx, id, models.RoomKitchen, elID, 50, 50)
	require.NoError(t, err)
	assert.True(t, moved.Resolution.Legal)
	assert.Equal(t, 50.0, moved.Room.Elements[0].X)

	resized, err := m.ResizeElement(ctx, id, models.RoomKitchen, elID, 30, 24)
	require.NoError(t, err)
	assert.Equal(t, 30.0, resized.Room.Elements[0].Width)

	_, err = m.ResizeElement(ctx, id, models.RoomKitchen, elID, -3, 24)
	assert.ErrorIs(t, err, models.ErrInvalidGeometry)

	_, err = m.RotateElement(ctx, id, models.RoomKitchen, elID, 90)
	require.NoError(t, err)

	violations, err := m.Audit(ctx, id, models.RoomKitchen)
	require.NoError(t, err)
	assert.Empty(t, violations)

	room, err := m.DeleteElement(ctx, id, models.RoomKitchen, elID)
	require.NoError(t, err)
	assert.Empty(t, room.Elements)

	_, err = m.MoveElement(ctx, id, models.RoomKitchen, elID, 0, 0)
	assert.ErrorIs(t, err, models.ErrStaleReference)
}

func TestInteractDragCommitsAndPersists(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	m := newManager(t, store)
	id := createProject(t, m)

	_, res, err := m.AddElement(ctx, id, models.RoomKitchen, placement.AddRequest{Type: "base-cabinet-24", X: ptr(0), Y: ptr(0)})
	require.NoError(t, err)
	elID := res.Element.ID

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out, err := m.Interact(ctx, id, models.RoomKitchen, interaction.Input{Kind: interaction.InputPointerDown, ElementID: elID, X: 12, Y: 12, At: t0})
	require.NoError(t, err)
	assert.Equal(t, interaction.PhaseDragging, out.State.Phase)

	out, err = m.Interact(ctx, id, models.RoomKitchen, interaction.Input{Kind: interaction.InputPointerMove, X: 40, Y: 40, At: t0.Add(20 * time.Millisecond)})
	require.NoError(t, err)
	require.NotNil(t, out.State.Drag.Preview)
	assert.Equal(t, 0.0, out.Room.Elements[0].X, "preview does not move the element")

	out, err = m.Interact(ctx, id, models.RoomKitchen, interaction.Input{Kind: interaction.InputPointerUp, X: 62, Y: 62, At: t0.Add(40 * time.Millisecond)})
	require.NoError(t, err)
	assert.Equal(t, interaction.PhaseCommitted, out.State.Phase)
	assert.Equal(t, 50.0, out.Room.Elements[0].X)
	assert.Equal(t, 50.0, out.Room.Elements[0].Y)

	room, err := newManager(t, store).Room(ctx, id, models.RoomKitchen)
	require.NoError(t, err)
	assert.Equal(t, 50.0, room.Elements[0].X)
}

func TestInteractInOtherRoomSwitchesAndResets(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	m := newManager(t, store)
	id := createProject(t, m)

	_, res, err := m.AddElement(ctx, id, models.RoomKitchen, placement.AddRequest{Type: "base-cabinet-24"})
	require.NoError(t, err)

	_, err = m.Interact(ctx, id, models.RoomKitchen, interaction.Input{Kind: interaction.InputPointerDown, ElementID: res.Element.ID, X: 70, Y: 60})
	require.NoError(t, err)

	out, err := m.Interact(ctx, id, models.RoomBathroom, interaction.Input{Kind: interaction.InputWallClick, X: 20, Y: 20})
	require.NoError(t, err)
	assert.Nil(t, out.State.Drag, "switching rooms drops the drag")
	require.NotNil(t, out.State.Draft)

	ws, err := m.Workspace(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoomBathroom, ws.Project.ActiveRoom)

	p, err := store.GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoomBathroom, p.ActiveRoom)

	out, err = m.Interact(ctx, id, models.RoomBathroom, interaction.Input{Kind: interaction.InputWallClick, X: 20, Y: 70})
	require.NoError(t, err)
	require.NotNil(t, out.State.LastWall)
	assert.Len(t, out.Room.CustomWalls, 1)

	ws, err = m.SwitchRoom(ctx, id, models.RoomKitchen)
	require.NoError(t, err)
	assert.Equal(t, models.RoomKitchen, ws.Project.ActiveRoom)
	assert.Equal(t, interaction.PhaseIdle, ws.Interaction.Phase)
	assert.Len(t, ws.Rooms[models.RoomBathroom].CustomWalls, 1)
}
