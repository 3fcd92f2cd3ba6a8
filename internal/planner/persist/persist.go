// Package persist переводит RoomState в сохраняемую запись и обратно.
// Старые записи без новых полей дополняются значениями по умолчанию,
// модули с типами вне справочника отбрасываются с предупреждением.
package persist

import (
	"encoding/json"
	"fmt"
	"slices"

	"room-planner/internal/common/logutil"
	"room-planner/internal/planner/models"
)

type Catalog interface {
	Has(t models.FixtureType) bool
}

// Warning предупреждение, выданное при загрузке записи.
type Warning struct {
	ElementID string             `json:"elementId"`
	Type      models.FixtureType `json:"type"`
	Message   string             `json:"message"`
}

// record сохраненный формат. Срезы-указатели отличают отсутствующее
// поле от пустого списка.
type record struct {
	Kind              models.RoomKind       `json:"kind"`
	Dimensions        models.RoomDimensions `json:"dimensions"`
	Walls             *[]int                `json:"walls"`
	CustomWalls       *[]models.CustomWall  `json:"customWalls"`
	AllAvailableWalls *[]int                `json:"allAvailableWalls"`
	OriginalWalls     *[]int                `json:"originalWalls"`
	RemovedWalls      *[]int                `json:"removedWalls"`
	Doors             *[]models.Door        `json:"doors"`
	Elements          []models.Element      `json:"elements"`
	Materials         map[string]string     `json:"materials"`
}

func Encode(state models.RoomState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode room %s: %w", state.Kind, err)
	}
	return data, nil
}

// Decode читает запись, дополняет отсутствующие поля и фильтрует модули
// по справочнику. catalog == nil отключает фильтрацию.
func Decode(data []byte, catalog Catalog) (models.RoomState, []Warning, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.RoomState{}, nil, fmt.Errorf("decode room record: %w", err)
	}
	if err := rec.Dimensions.Validate(); err != nil {
		return models.RoomState{}, nil, err
	}

	state := models.NewRoomState(rec.Kind, rec.Dimensions)
	if rec.CustomWalls != nil {
		state.CustomWalls = *rec.CustomWalls
	}
	for i := range state.CustomWalls {
		if state.CustomWalls[i].Doors == nil {
			state.CustomWalls[i].Doors = []string{}
		}
	}

	if rec.Walls != nil {
		state.Walls = *rec.Walls
	}
	if rec.AllAvailableWalls != nil {
		state.AllAvailableWalls = *rec.AllAvailableWalls
	} else {
		state.AllAvailableWalls = models.StandardWalls()
		for _, w := range state.CustomWalls {
			if !slices.Contains(state.AllAvailableWalls, w.WallNumber) {
				state.AllAvailableWalls = append(state.AllAvailableWalls, w.WallNumber)
			}
		}
	}
	if rec.OriginalWalls != nil {
		state.OriginalWalls = *rec.OriginalWalls
	}
	if rec.RemovedWalls != nil {
		state.RemovedWalls = *rec.RemovedWalls
	}
	if rec.Doors != nil {
		state.Doors = *rec.Doors
	}
	if rec.Materials != nil {
		state.Materials = rec.Materials
	}
	nilToEmpty(&state)

	warnings := []Warning{}
	for _, e := range rec.Elements {
		if catalog != nil && !catalog.Has(e.Type) {
			w := Warning{
				ElementID: e.ID,
				Type:      e.Type,
				Message:   fmt.Sprintf("element %s dropped: type %q is not in the catalog", e.ID, e.Type),
			}
			logutil.Warnf("[PERSIST] %s", w.Message)
			warnings = append(warnings, w)
			delete(state.Materials, e.ID)
			continue
		}
		state.Elements = append(state.Elements, e)
	}

	return state, warnings, nil
}

// nilToEmpty явный null в записи превращается в пустую коллекцию.
func nilToEmpty(state *models.RoomState) {
	if state.Walls == nil {
		state.Walls = []int{}
	}
	if state.CustomWalls == nil {
		state.CustomWalls = []models.CustomWall{}
	}
	if state.AllAvailableWalls == nil {
		state.AllAvailableWalls = []int{}
	}
	if state.OriginalWalls == nil {
		state.OriginalWalls = []int{}
	}
	if state.RemovedWalls == nil {
		state.RemovedWalls = []int{}
	}
	if state.Doors == nil {
		state.Doors = []models.Door{}
	}
}
