package models

import (
	"slices"
)

// ============================================================
// Wall Registry
// ============================================================

// WallRegistry единственный владелец всех коллекций номеров стен.
// Поля встраиваются в запись комнаты как есть, поэтому JSON-ключи
// совпадают с сохраненным форматом.
type WallRegistry struct {
	Walls             []int        `json:"walls"`
	CustomWalls       []CustomWall `json:"customWalls"`
	AllAvailableWalls []int        `json:"allAvailableWalls"`
	OriginalWalls     []int        `json:"originalWalls"`
	RemovedWalls      []int        `json:"removedWalls"`
}

func NewWallRegistry() WallRegistry {
	return WallRegistry{
		Walls:             StandardWalls(),
		CustomWalls:       []CustomWall{},
		AllAvailableWalls: StandardWalls(),
		OriginalWalls:     StandardWalls(),
		RemovedWalls:      []int{},
	}
}

// IsPresent стена активна (для пользовательской стены еще и существует).
func (r *WallRegistry) IsPresent(n int) bool {
	if !slices.Contains(r.Walls, n) {
		return false
	}
	if IsStandardWall(n) {
		return true
	}
	_, ok := r.Custom(n)
	return ok
}

func (r *WallRegistry) Custom(n int) (CustomWall, bool) {
	if i := r.customIndex(n); i >= 0 {
		return r.CustomWalls[i], true
	}
	return CustomWall{}, false
}

func (r *WallRegistry) customIndex(n int) int {
	return slices.IndexFunc(r.CustomWalls, func(w CustomWall) bool { return w.WallNumber == n })
}

// PresentCustomWalls активные пользовательские стены в порядке номеров.
func (r *WallRegistry) PresentCustomWalls() []CustomWall {
	out := make([]CustomWall, 0, len(r.CustomWalls))
	for _, w := range r.CustomWalls {
		if slices.Contains(r.Walls, w.WallNumber) {
			out = append(out, w)
		}
	}
	slices.SortStableFunc(out, func(a, b CustomWall) int { return a.WallNumber - b.WallNumber })
	return out
}

// NextWallNumber max(существующие номера) + 1.
func (r *WallRegistry) NextWallNumber() int {
	next := FirstCustomWall
	bump := func(ns ...int) {
		for _, n := range ns {
			if n+1 > next {
				next = n + 1
			}
		}
	}
	bump(r.Walls...)
	bump(r.AllAvailableWalls...)
	bump(r.OriginalWalls...)
	bump(r.RemovedWalls...)
	for _, w := range r.CustomWalls {
		bump(w.WallNumber)
	}
	return next
}

// ActivateStandard переносит стандартную стену из удаленных в активные.
func (r *WallRegistry) ActivateStandard(n int) {
	r.RemovedWalls = removeInt(r.RemovedWalls, n)
	r.Walls = appendUniqueInt(r.Walls, n)
	r.AllAvailableWalls = appendUniqueInt(r.AllAvailableWalls, n)
	slices.Sort(r.Walls)
}

// DeactivateStandard переносит стандартную стену в удаленные.
func (r *WallRegistry) DeactivateStandard(n int) {
	r.Walls = removeInt(r.Walls, n)
	r.RemovedWalls = appendUniqueInt(r.RemovedWalls, n)
	slices.Sort(r.RemovedWalls)
}

// RegisterCustom добавляет стену во все коллекции, которые на нее ссылаются.
func (r *WallRegistry) RegisterCustom(w CustomWall) {
	if w.Doors == nil {
		w.Doors = []string{}
	}
	r.CustomWalls = append(r.CustomWalls, w)
	r.Walls = appendUniqueInt(r.Walls, w.WallNumber)
	r.AllAvailableWalls = appendUniqueInt(r.AllAvailableWalls, w.WallNumber)
	if w.ExistedPrior {
		r.OriginalWalls = appendUniqueInt(r.OriginalWalls, w.WallNumber)
	}
}

// UpdateCustom заменяет стену с тем же номером.
func (r *WallRegistry) UpdateCustom(w CustomWall) bool {
	i := r.customIndex(w.WallNumber)
	if i < 0 {
		return false
	}
	r.CustomWalls[i] = w
	return true
}

// DeleteCustom удаляет номер из всех пяти коллекций сразу.
func (r *WallRegistry) DeleteCustom(n int) (CustomWall, bool) {
	i := r.customIndex(n)
	if i < 0 {
		return CustomWall{}, false
	}
	wall := r.CustomWalls[i]
	r.CustomWalls = slices.Delete(r.CustomWalls, i, i+1)
	r.Walls = removeInt(r.Walls, n)
	r.AllAvailableWalls = removeInt(r.AllAvailableWalls, n)
	r.OriginalWalls = removeInt(r.OriginalWalls, n)
	r.RemovedWalls = removeInt(r.RemovedWalls, n)
	return wall, true
}

// References сколько коллекций еще ссылаются на номер.
func (r *WallRegistry) References(n int) int {
	count := 0
	for _, list := range [][]int{r.Walls, r.AllAvailableWalls, r.OriginalWalls, r.RemovedWalls} {
		if slices.Contains(list, n) {
			count++
		}
	}
	if r.customIndex(n) >= 0 {
		count++
	}
	return count
}

// WallLength длина стены по номеру; для стандартных стен длина внутренней грани.
func (s *RoomState) WallLength(n int) (float64, bool) {
	switch n {
	case WallTop, WallBottom:
		return s.Dimensions.Width, true
	case WallRight, WallLeft:
		return s.Dimensions.Height, true
	}
	w, ok := s.Custom(n)
	if !ok {
		return 0, false
	}
	return w.Length(), true
}

func (r WallRegistry) Clone() WallRegistry {
	out := WallRegistry{
		Walls:             cloneInts(r.Walls),
		AllAvailableWalls: cloneInts(r.AllAvailableWalls),
		OriginalWalls:     cloneInts(r.OriginalWalls),
		RemovedWalls:      cloneInts(r.RemovedWalls),
		CustomWalls:       make([]CustomWall, len(r.CustomWalls)),
	}
	for i, w := range r.CustomWalls {
		w.Doors = append([]string{}, w.Doors...)
		out.CustomWalls[i] = w
	}
	return out
}

// ============================================================
// Room State
// ============================================================

// RoomState единица сохранения комнаты. Не содержит указателей на
// внутренние структуры; каждое изменение создает новую копию.
type RoomState struct {
	Kind       RoomKind       `json:"kind"`
	Dimensions RoomDimensions `json:"dimensions"`
	WallRegistry
	Doors     []Door            `json:"doors"`
	Elements  []Element         `json:"elements"`
	Materials map[string]string `json:"materials"`
}

func NewRoomState(kind RoomKind, dims RoomDimensions) RoomState {
	return RoomState{
		Kind:         kind,
		Dimensions:   dims,
		WallRegistry: NewWallRegistry(),
		Doors:        []Door{},
		Elements:     []Element{},
		Materials:    map[string]string{},
	}
}

func (s RoomState) Clone() RoomState {
	out := s
	out.WallRegistry = s.WallRegistry.Clone()
	out.Doors = append([]Door{}, s.Doors...)
	out.Elements = append([]Element{}, s.Elements...)
	out.Materials = make(map[string]string, len(s.Materials))
	for k, v := range s.Materials {
		out.Materials[k] = v
	}
	return out
}

func (s *RoomState) Element(id string) (Element, int, bool) {
	i := slices.IndexFunc(s.Elements, func(e Element) bool { return e.ID == id })
	if i < 0 {
		return Element{}, -1, false
	}
	return s.Elements[i], i, true
}

// RemoveElement удаляет модуль вместе с записями в побочных таблицах.
func (s *RoomState) RemoveElement(id string) bool {
	_, i, ok := s.Element(id)
	if !ok {
		return false
	}
	s.Elements = slices.Delete(s.Elements, i, i+1)
	delete(s.Materials, id)
	return true
}

func (s *RoomState) Door(id string) (Door, int, bool) {
	i := slices.IndexFunc(s.Doors, func(d Door) bool { return d.ID == id })
	if i < 0 {
		return Door{}, -1, false
	}
	return s.Doors[i], i, true
}

// RemoveDoor удаляет дверь и ссылку на нее из стены-владельца.
func (s *RoomState) RemoveDoor(id string) bool {
	door, i, ok := s.Door(id)
	if !ok {
		return false
	}
	s.Doors = slices.Delete(s.Doors, i, i+1)
	if w, ok := s.Custom(door.WallNumber); ok {
		w.Doors = removeString(w.Doors, id)
		s.UpdateCustom(w)
	}
	return true
}

// RemoveDoorsOnWall каскадно удаляет двери стены, возвращает их id.
func (s *RoomState) RemoveDoorsOnWall(n int) []string {
	var removed []string
	kept := s.Doors[:0:0]
	for _, d := range s.Doors {
		if d.WallNumber == n {
			removed = append(removed, d.ID)
			continue
		}
		kept = append(kept, d)
	}
	s.Doors = kept
	if w, ok := s.Custom(n); ok {
		w.Doors = []string{}
		s.UpdateCustom(w)
	}
	return removed
}

// ============================================================
// Helpers
// ============================================================

func cloneInts(in []int) []int {
	return append([]int{}, in...)
}

func appendUniqueInt(dst []int, n int) []int {
	if slices.Contains(dst, n) {
		return dst
	}
	return append(dst, n)
}

func removeInt(src []int, n int) []int {
	out := make([]int, 0, len(src))
	for _, v := range src {
		if v != n {
			out = append(out, v)
		}
	}
	return out
}

func removeString(src []string, target string) []string {
	out := make([]string, 0, len(src))
	for _, v := range src {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
