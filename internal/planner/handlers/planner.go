package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"room-planner/internal/common/logutil"
	"room-planner/internal/planner/doors"
	"room-planner/internal/planner/interaction"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/placement"
	"room-planner/internal/planner/service"
	"room-planner/internal/planner/walls"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Planner Handler
// ============================================================

type PlannerHandler struct {
	manager *service.Manager
}

func NewPlannerHandler(manager *service.Manager) *PlannerHandler {
	return &PlannerHandler{manager: manager}
}

const roomPath = "/projects/:id/rooms/:room"

// Register вешает все маршруты планировщика на router.
func (h *PlannerHandler) Register(r fiber.Router) {
	r.Get("/catalog", h.ListCatalog)

	r.Post("/projects", h.CreateProject)
	r.Get("/projects/:id", h.GetProject)
	r.Post("/projects/:id/active", h.SwitchRoom)

	r.Get(roomPath, h.GetRoom)
	r.Put(roomPath+"/dimensions", h.SetDimensions)

	r.Post(roomPath+"/walls/standard/:n", h.AddStandardWall)
	r.Delete(roomPath+"/walls/standard/:n", h.RemoveStandardWall)
	r.Post(roomPath+"/walls/custom", h.AddCustomWall)
	r.Put(roomPath+"/walls/custom/:n/angle", h.RotateCustomWall)
	r.Delete(roomPath+"/walls/custom/:n", h.DeleteCustomWall)

	r.Post(roomPath+"/doors", h.AddDoor)
	r.Put(roomPath+"/doors/:door", h.UpdateDoor)
	r.Delete(roomPath+"/doors/:door", h.DeleteDoor)

	r.Post(roomPath+"/elements", h.AddElement)
	r.Put(roomPath+"/elements/:el/position", h.MoveElement)
	r.Put(roomPath+"/elements/:el/rotation", h.RotateElement)
	r.Put(roomPath+"/elements/:el/size", h.ResizeElement)
	r.Put(roomPath+"/elements/:el/material", h.SetMaterial)
	r.Delete(roomPath+"/elements/:el", h.DeleteElement)

	r.Post(roomPath+"/drag/begin", h.interact(interaction.InputPointerDown))
	r.Post(roomPath+"/drag/move", h.interact(interaction.InputPointerMove))
	r.Post(roomPath+"/drag/end", h.interact(interaction.InputPointerUp))
	r.Post(roomPath+"/drag/cancel", h.interact(interaction.InputCancel))
	r.Post(roomPath+"/walldraw/click", h.interact(interaction.InputWallClick))
	r.Post(roomPath+"/walldraw/hover", h.interact(interaction.InputWallHover))
	r.Post(roomPath+"/walldraw/cancel", h.interact(interaction.InputWallCancel))

	r.Get(roomPath+"/clearance", h.Clearance)
	r.Get(roomPath+"/audit", h.Audit)
	r.Get(roomPath+"/overlay.svg", h.Overlay)
}

// ============================================================
// Catalog & Projects
// ============================================================

// ListCatalog ?room=kitchen|bathroom фильтрует по комнате.
func (h *PlannerHandler) ListCatalog(c fiber.Ctx) error {
	kind := models.RoomKind(c.Query("room"))
	if kind != "" && !kind.Valid() {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unknown room kind"})
	}
	return c.JSON(fiber.Map{"items": h.manager.Catalog().List(kind)})
}

func (h *PlannerHandler) CreateProject(c fiber.Ctx) error {
	var req service.CreateProjectRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
	}

	ws, err := h.manager.CreateProject(c.Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(ws)
}

func (h *PlannerHandler) GetProject(c fiber.Ctx) error {
	ws, err := h.manager.Workspace(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(ws)
}

type switchRequest struct {
	Room models.RoomKind `json:"room"`
}

func (h *PlannerHandler) SwitchRoom(c fiber.Ctx) error {
	var req switchRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	ws, err := h.manager.SwitchRoom(c.Context(), c.Params("id"), req.Room)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(ws)
}

// ============================================================
// Room
// ============================================================

func (h *PlannerHandler) GetRoom(c fiber.Ctx) error {
	room, err := h.manager.Room(c.Context(), c.Params("id"), roomKind(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(room)
}

func (h *PlannerHandler) SetDimensions(c fiber.Ctx) error {
	var dims models.RoomDimensions
	if err := json.Unmarshal(c.Body(), &dims); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	change, err := h.manager.SetDimensions(c.Context(), c.Params("id"), roomKind(c), dims)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(change)
}

// ============================================================
// Walls
// ============================================================

func (h *PlannerHandler) AddStandardWall(c fiber.Ctx) error {
	n, err := strconv.Atoi(c.Params("n"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid wall number"})
	}
	change, err := h.manager.AddStandardWall(c.Context(), c.Params("id"), roomKind(c), n)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(change)
}

// RemoveStandardWall без ?confirm=true отвечает 409 со списком модулей,
// если к стене что-то прислонено.
func (h *PlannerHandler) RemoveStandardWall(c fiber.Ctx) error {
	n, err := strconv.Atoi(c.Params("n"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid wall number"})
	}
	confirmed := c.Query("confirm") == "true"

	change, err := h.manager.RemoveStandardWall(c.Context(), c.Params("id"), roomKind(c), n, confirmed)
	if errors.Is(err, models.ErrConfirmationRequired) {
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"error":    err.Error(),
			"affected": change.Affected,
		})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(change)
}

func (h *PlannerHandler) AddCustomWall(c fiber.Ctx) error {
	var req walls.WallRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	change, err := h.manager.AddCustomWall(c.Context(), c.Params("id"), roomKind(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(change)
}

type angleRequest struct {
	Angle float64 `json:"angle"`
}

func (h *PlannerHandler) RotateCustomWall(c fiber.Ctx) error {
	n, err := strconv.Atoi(c.Params("n"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid wall number"})
	}
	var req angleRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	change, err := h.manager.RotateCustomWall(c.Context(), c.Params("id"), roomKind(c), n, req.Angle)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(change)
}

func (h *PlannerHandler) DeleteCustomWall(c fiber.Ctx) error {
	n, err := strconv.Atoi(c.Params("n"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid wall number"})
	}
	change, err := h.manager.DeleteCustomWall(c.Context(), c.Params("id"), roomKind(c), n)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(change)
}

// ============================================================
// Doors
// ============================================================

func (h *PlannerHandler) AddDoor(c fiber.Ctx) error {
	var req doors.DoorRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	change, err := h.manager.AddDoor(c.Context(), c.Params("id"), roomKind(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(change)
}

type doorUpdateRequest struct {
	Position float64 `json:"position"`
	Width    float64 `json:"width"`
}

func (h *PlannerHandler) UpdateDoor(c fiber.Ctx) error {
	var req doorUpdateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	change, err := h.manager.UpdateDoor(c.Context(), c.Params("id"), roomKind(c), c.Params("door"), req.Position, req.Width)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(change)
}

func (h *PlannerHandler) DeleteDoor(c fiber.Ctx) error {
	room, err := h.manager.DeleteDoor(c.Context(), c.Params("id"), roomKind(c), c.Params("door"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(room)
}

// ============================================================
// Elements
// ============================================================

func (h *PlannerHandler) AddElement(c fiber.Ctx) error {
	var req placement.AddRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	room, res, err := h.manager.AddElement(c.Context(), c.Params("id"), roomKind(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"room":   room,
		"result": res,
	})
}

type positionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (h *PlannerHandler) MoveElement(c fiber.Ctx) error {
	var req positionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	change, err := h.manager.MoveElement(c.Context(), c.Params("id"), roomKind(c), c.Params("el"), req.X, req.Y)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(change)
}

type rotationRequest struct {
	Rotation float64 `json:"rotation"`
}

func (h *PlannerHandler) RotateElement(c fiber.Ctx) error {
	var req rotationRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	change, err := h.manager.RotateElement(c.Context(), c.Params("id"), roomKind(c), c.Params("el"), req.Rotation)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(change)
}

type sizeRequest struct {
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

func (h *PlannerHandler) ResizeElement(c fiber.Ctx) error {
	var req sizeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	change, err := h.manager.ResizeElement(c.Context(), c.Params("id"), roomKind(c), c.Params("el"), req.Width, req.Depth)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(change)
}

type materialRequest struct {
	Material string `json:"material"`
}

func (h *PlannerHandler) SetMaterial(c fiber.Ctx) error {
	var req materialRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	room, err := h.manager.SetMaterial(c.Context(), c.Params("id"), roomKind(c), c.Params("el"), req.Material)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(room)
}

func (h *PlannerHandler) DeleteElement(c fiber.Ctx) error {
	room, err := h.manager.DeleteElement(c.Context(), c.Params("id"), roomKind(c), c.Params("el"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(room)
}

// ============================================================
// Interaction
// ============================================================

type pointerRequest struct {
	ElementID string  `json:"elementId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// interact один обработчик на каждый вид ввода. Тело необязательно
// для cancel.
func (h *PlannerHandler) interact(kind interaction.InputKind) fiber.Handler {
	return func(c fiber.Ctx) error {
		var req pointerRequest
		if len(c.Body()) > 0 {
			if err := json.Unmarshal(c.Body(), &req); err != nil {
				return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
			}
		}

		out, err := h.manager.Interact(c.Context(), c.Params("id"), roomKind(c), interaction.Input{
			Kind:      kind,
			ElementID: req.ElementID,
			X:         req.X,
			Y:         req.Y,
		})
		if err != nil {
			return c.Status(status(err)).JSON(fiber.Map{
				"error": err.Error(),
				"state": out.State,
			})
		}
		return c.JSON(out)
	}
}

// ============================================================
// Derived views
// ============================================================

func (h *PlannerHandler) Clearance(c fiber.Ctx) error {
	zones, err := h.manager.Clearance(c.Context(), c.Params("id"), roomKind(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"zones": zones})
}

func (h *PlannerHandler) Audit(c fiber.Ctx) error {
	violations, err := h.manager.Audit(c.Context(), c.Params("id"), roomKind(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"violations": violations})
}

func (h *PlannerHandler) Overlay(c fiber.Ctx) error {
	svg, err := h.manager.Overlay(c.Context(), c.Params("id"), roomKind(c))
	if err != nil {
		return fail(c, err)
	}
	c.Type("svg")
	return c.SendString(svg)
}

// ============================================================
// Helpers
// ============================================================

func roomKind(c fiber.Ctx) models.RoomKind {
	return models.RoomKind(c.Params("room"))
}

func status(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidGeometry):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrStaleReference),
		errors.Is(err, service.ErrUnknownProject),
		errors.Is(err, service.ErrUnknownRoom):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConfirmationRequired):
		return http.StatusConflict
	case errors.Is(err, models.ErrIllegalPlacement),
		errors.Is(err, models.ErrMissingCatalogEntry):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func fail(c fiber.Ctx, err error) error {
	code := status(err)
	if code == http.StatusInternalServerError {
		logutil.Errorf("[PLANNER] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(code).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
