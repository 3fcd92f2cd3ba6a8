package collision

import (
	"math"
	"slices"

	"room-planner/internal/planner/models"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Catalog всё, что индексу нужно от справочника.
type Catalog interface {
	Has(t models.FixtureType) bool
}

// ============================================================
// Fixture Index
// ============================================================

// minExtent rtreego не принимает прямоугольники нулевой длины.
const minExtent = 1e-3

type fixtureSpatial struct {
	order   int
	element models.Element
	rect    rtreego.Rect
}

func (f *fixtureSpatial) Bounds() rtreego.Rect {
	return f.rect
}

// FixtureIndex R-дерево модулей комнаты для поиска соседей при привязке.
// Модули с типом вне справочника не индексируются.
type FixtureIndex struct {
	tree *rtreego.Rtree
}

func NewFixtureIndex(elements []models.Element, catalog Catalog) *FixtureIndex {
	spatials := make([]rtreego.Spatial, 0, len(elements))
	for i, e := range elements {
		if catalog != nil && !catalog.Has(e.Type) {
			continue
		}
		spatials = append(spatials, &fixtureSpatial{
			order:   i,
			element: e,
			rect:    toRect(e.Bound(), 0),
		})
	}
	return &FixtureIndex{tree: rtreego.NewTree(2, 25, 50, spatials...)}
}

func (ix *FixtureIndex) Size() int {
	return ix.tree.Size()
}

// Near модули в пределах margin от bound, кроме exclude, в порядке
// следования в комнате. Порядок важен для детерминированной привязки.
func (ix *FixtureIndex) Near(bound orb.Bound, margin float64, exclude string) []models.Element {
	// +1 на случай, если дерево не включает касающиеся прямоугольники
	found := ix.tree.SearchIntersect(toRect(bound, margin+1))

	hits := make([]*fixtureSpatial, 0, len(found))
	for _, s := range found {
		f := s.(*fixtureSpatial)
		if f.element.ID == exclude {
			continue
		}
		hits = append(hits, f)
	}
	slices.SortFunc(hits, func(a, b *fixtureSpatial) int { return a.order - b.order })

	out := make([]models.Element, len(hits))
	for i, h := range hits {
		out[i] = h.element
	}
	return out
}

func toRect(b orb.Bound, pad float64) rtreego.Rect {
	minX, minY := b.Min.X()-pad, b.Min.Y()-pad
	w := math.Max(b.Max.X()-b.Min.X()+2*pad, minExtent)
	h := math.Max(b.Max.Y()-b.Min.Y()+2*pad, minExtent)
	rect, _ := rtreego.NewRect(rtreego.Point{minX, minY}, []float64{w, h})
	return rect
}
