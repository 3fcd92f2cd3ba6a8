package placement

import (
	"fmt"
	"math"

	"room-planner/internal/planner/catalog"
	"room-planner/internal/planner/collision"
	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"

	"github.com/google/uuid"
)

// Catalog справочник, которым пользуется движок расстановки.
type Catalog interface {
	Lookup(t models.FixtureType) (catalog.Entry, bool)
	Has(t models.FixtureType) bool
}

// Engine движок расстановки модулей. Не хранит состояния комнаты:
// каждая операция получает RoomState и возвращает новую копию.
type Engine struct {
	settings models.Settings
	catalog  Catalog
}

func NewEngine(settings models.Settings, c Catalog) *Engine {
	return &Engine{settings: settings, catalog: c}
}

func (e *Engine) Settings() models.Settings {
	return e.settings
}

// Knows сообщает, есть ли тип в справочнике. Модули неизвестного типа
// не участвуют в привязке.
func (e *Engine) Knows(t models.FixtureType) bool {
	return e.catalog.Has(t)
}

// Resolve прогоняет кандидата (x, y) для модуля через привязку и проверку,
// не меняя состояние. Повторный вызов с теми же данными дает тот же результат.
func (e *Engine) Resolve(state *models.RoomState, el models.Element, x, y float64) Resolution {
	return e.resolve(state, el, x, y, true)
}

// ============================================================
// Element mutations
// ============================================================

// Move переносит модуль. Недопустимый результат отклоняется целиком,
// модуль остается на прежнем месте.
func (e *Engine) Move(state models.RoomState, id string, x, y float64) (models.RoomState, Resolution, error) {
	el, i, err := e.element(&state, id)
	if err != nil {
		return state, Resolution{}, err
	}
	if !finite(x, y) {
		return state, Resolution{}, fmt.Errorf("%w: position (%v, %v)", models.ErrInvalidGeometry, x, y)
	}

	res := e.resolve(&state, el, x, y, true)
	if !res.Legal {
		return state, res, fmt.Errorf("%w: element %s at (%.1f, %.1f)", models.ErrIllegalPlacement, id, res.X, res.Y)
	}
	return commit(state, i, res), res, nil
}

// Rotate поворачивает модуль вокруг центра на абсолютный угол.
func (e *Engine) Rotate(state models.RoomState, id string, rotation float64) (models.RoomState, Resolution, error) {
	el, i, err := e.element(&state, id)
	if err != nil {
		return state, Resolution{}, err
	}
	if !finite(rotation) {
		return state, Resolution{}, fmt.Errorf("%w: rotation %v", models.ErrInvalidGeometry, rotation)
	}

	center := el.Center()
	el.Rotation = geometry.NormalizeAngle(rotation)
	w, h := el.Footprint()

	res := e.resolve(&state, el, center.X()-w/2, center.Y()-h/2, false)
	if !res.Legal {
		return state, res, fmt.Errorf("%w: element %s rotated to %.0f", models.ErrIllegalPlacement, id, rotation)
	}
	return commit(state, i, res), res, nil
}

// Resize меняет ширину и глубину, левый верхний угол сохраняется.
func (e *Engine) Resize(state models.RoomState, id string, width, depth float64) (models.RoomState, Resolution, error) {
	el, i, err := e.element(&state, id)
	if err != nil {
		return state, Resolution{}, err
	}
	if !(width > 0) || !(depth > 0) || !finite(width, depth) {
		return state, Resolution{}, fmt.Errorf("%w: size %vx%v", models.ErrInvalidGeometry, width, depth)
	}

	el.Width, el.Depth = width, depth
	res := e.resolve(&state, el, el.X, el.Y, false)
	if !res.Legal {
		return state, res, fmt.Errorf("%w: element %s resized to %.1fx%.1f", models.ErrIllegalPlacement, id, width, depth)
	}

	next := commit(state, i, res)
	next.Elements[i].Width = width
	next.Elements[i].Depth = depth
	return next, res, nil
}

// Delete удаляет модуль вместе с записями в побочных таблицах.
func (e *Engine) Delete(state models.RoomState, id string) (models.RoomState, error) {
	if _, _, ok := state.Element(id); !ok {
		return state, fmt.Errorf("%w: element %s", models.ErrStaleReference, id)
	}
	next := state.Clone()
	next.RemoveElement(id)
	return next, nil
}

// SetMaterial пустой material снимает запись.
func (e *Engine) SetMaterial(state models.RoomState, id, material string) (models.RoomState, error) {
	if _, _, ok := state.Element(id); !ok {
		return state, fmt.Errorf("%w: element %s", models.ErrStaleReference, id)
	}
	next := state.Clone()
	if material == "" {
		delete(next.Materials, id)
	} else {
		next.Materials[id] = material
	}
	return next, nil
}

// Refit возвращает модули внутрь комнаты после смены размеров.
// Отдает id сдвинутых модулей; модуль крупнее комнаты прижимается к
// левому верхнему углу и остается за стеной.
func (e *Engine) Refit(state models.RoomState) (models.RoomState, []string) {
	next := state.Clone()
	moved := []string{}
	for i, el := range next.Elements {
		w, h := el.Footprint()
		p := clampToRoom(placement{x: el.X, y: el.Y, w: w, h: h, rotation: el.Rotation}, next.Dimensions)
		if p.x == el.X && p.y == el.Y {
			continue
		}
		next.Elements[i].X, next.Elements[i].Y = p.x, p.y
		moved = append(moved, el.ID)
	}
	return next, moved
}

func (e *Engine) element(state *models.RoomState, id string) (models.Element, int, error) {
	el, i, ok := state.Element(id)
	if !ok {
		return models.Element{}, -1, fmt.Errorf("%w: element %s", models.ErrStaleReference, id)
	}
	if !e.Knows(el.Type) {
		return models.Element{}, -1, fmt.Errorf("%w: %s", models.ErrMissingCatalogEntry, el.Type)
	}
	return el, i, nil
}

func commit(state models.RoomState, i int, res Resolution) models.RoomState {
	next := state.Clone()
	next.Elements[i].X = res.X
	next.Elements[i].Y = res.Y
	next.Elements[i].Rotation = res.Rotation
	return next
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ============================================================
// Add
// ============================================================

type AddRequest struct {
	Type     models.FixtureType `json:"type"`
	X        *float64           `json:"x,omitempty"`
	Y        *float64           `json:"y,omitempty"`
	Rotation float64            `json:"rotation"`
}

type AddResult struct {
	Element    models.Element `json:"element"`
	Resolution Resolution     `json:"resolution"`
	Fallback   bool           `json:"fallback"`
	Warning    string         `json:"warning,omitempty"`
}

// Add размещает новый модуль и всегда успешен для типа из справочника.
// Порядок: запрошенная точка (если задана), центр комнаты, первая свободная
// ячейка сетки построчно от (0,0); иначе центр с предупреждением.
func (e *Engine) Add(state models.RoomState, req AddRequest) (models.RoomState, AddResult, error) {
	entry, ok := e.catalog.Lookup(req.Type)
	if !ok {
		return state, AddResult{}, fmt.Errorf("%w: %s", models.ErrMissingCatalogEntry, req.Type)
	}
	if !finite(req.Rotation) {
		return state, AddResult{}, fmt.Errorf("%w: rotation %v", models.ErrInvalidGeometry, req.Rotation)
	}

	el := models.Element{
		ID:          uuid.NewString(),
		Type:        entry.Type,
		Category:    string(entry.Category),
		Width:       entry.DefaultWidth,
		Depth:       entry.DefaultDepth,
		Rotation:    geometry.NormalizeAngle(req.Rotation),
		MountHeight: entry.MountHeight,
	}

	res, fallback, warning := e.place(&state, el, req)
	el.X, el.Y, el.Rotation = res.X, res.Y, res.Rotation

	next := state.Clone()
	next.Elements = append(next.Elements, el)
	return next, AddResult{Element: el, Resolution: res, Fallback: fallback, Warning: warning}, nil
}

func (e *Engine) place(state *models.RoomState, el models.Element, req AddRequest) (Resolution, bool, string) {
	if req.X != nil && req.Y != nil && finite(*req.X, *req.Y) {
		if res := e.resolve(state, el, *req.X, *req.Y, true); res.Legal {
			return res, false, ""
		}
	}

	w, h := el.Footprint()
	dims := state.Dimensions
	checker := collision.NewChecker(state, e.settings)

	center := clampToRoom(placement{x: (dims.Width - w) / 2, y: (dims.Height - h) / 2, w: w, h: h, rotation: el.Rotation}, dims)
	centerRes := Resolution{X: center.x, Y: center.y, Rotation: el.Rotation, Source: SourceNone, Legal: checker.Legal(center.bound())}
	if centerRes.Legal {
		return centerRes, false, ""
	}

	step := e.settings.FallbackGridStep
	if step > 0 {
		for y := 0.0; y+h <= dims.Height+geometry.Epsilon; y += step {
			for x := 0.0; x+w <= dims.Width+geometry.Epsilon; x += step {
				if checker.Legal(geometry.RectBound(x, y, w, h)) {
					return Resolution{X: x, Y: y, Rotation: el.Rotation, Source: SourceNone, Legal: true}, true, ""
				}
			}
		}
	}

	return centerRes, true, fmt.Sprintf("no free position for %s, placed at room center", el.Type)
}
