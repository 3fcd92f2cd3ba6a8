// Package catalog хранит справочник типов модулей. Движку нужны только
// размеры по умолчанию и категория, цена и отрисовка живут снаружи.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"room-planner/internal/planner/models"

	"github.com/maruel/natural"
)

//go:embed catalog.json
var dataFS embed.FS

type Category string

const (
	CategoryBase      Category = "base"
	CategoryWall      Category = "wall"
	CategoryTall      Category = "tall"
	CategoryAppliance Category = "appliance"
)

type Entry struct {
	Type         models.FixtureType `json:"type"`
	Name         string             `json:"name"`
	DefaultWidth float64            `json:"defaultWidth"`
	DefaultDepth float64            `json:"defaultDepth"`
	Category     Category           `json:"category"`
	MountHeight  float64            `json:"mountHeight"`
	Rooms        []models.RoomKind  `json:"rooms"`
}

// Catalog разрешает тип модуля один раз при загрузке.
type Catalog struct {
	entries map[models.FixtureType]Entry
}

func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[models.FixtureType]Entry, len(entries))}
	for _, e := range entries {
		if e.Type == "" {
			return nil, errors.New("catalog entry without type")
		}
		if !(e.DefaultWidth > 0) || !(e.DefaultDepth > 0) {
			return nil, fmt.Errorf("catalog entry %s: dimensions must be positive", e.Type)
		}
		if _, dup := c.entries[e.Type]; dup {
			return nil, fmt.Errorf("catalog entry %s: duplicate type", e.Type)
		}
		c.entries[e.Type] = e
	}
	return c, nil
}

// Load читает встроенный catalog.json.
func Load() (*Catalog, error) {
	content, err := dataFS.ReadFile("catalog.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("catalog is empty")
	}
	return New(entries)
}

func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(t models.FixtureType) (Entry, bool) {
	e, ok := c.entries[t]
	return e, ok
}

func (c *Catalog) Has(t models.FixtureType) bool {
	_, ok := c.entries[t]
	return ok
}

func (c *Catalog) Count() int {
	return len(c.entries)
}

// List возвращает записи в натуральном порядке ключей
// (base-cabinet-12 перед base-cabinet-24). Пустой kind: все комнаты.
func (c *Catalog) List(kind models.RoomKind) []Entry {
	keys := make([]string, 0, len(c.entries))
	for t, e := range c.entries {
		if kind != "" && len(e.Rooms) > 0 && !slices.Contains(e.Rooms, kind) {
			continue
		}
		keys = append(keys, string(t))
	}
	sort.Sort(natural.StringSlice(keys))

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.entries[models.FixtureType(k)])
	}
	return out
}
