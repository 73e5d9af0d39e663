package backends

import "github.com/understory-go/spatial/internal/spatial/aabb"

type gridKey struct{ cx, cy int64 }

// Grid is a uniform-grid backend: good locality and simple tuning when
// coordinates are non-negative (or close to it, via an origin offset) and
// AABBs mostly fall within a handful of cells. Unlike the Rust original,
// which resolves a cell key by linear search over its cell list, this
// keys cells in a Go map, trading a little memory for O(1) cell lookup
// instead of O(cells) per insert/update/remove.
type Grid[T aabb.Number] struct {
	cellW, cellH   T
	originX, origY T
	boxes          []*aabb.Aabb2D[T]
	cells          map[gridKey][]int
	floorDiv       func(numerator, denominator T) int64
}

// NewGrid builds a grid backend with the given cell size and origin
// offset. floorDiv divides numerator by denominator and rounds toward
// negative infinity, not toward zero, so negative coordinates land in the
// correct cell instead of being truncated, matching the Rust original's
// floor_to_i64 helper.
func NewGrid[T aabb.Number](cellW, cellH, originX, origY T, floorDiv func(numerator, denominator T) int64) *Grid[T] {
	return &Grid[T]{
		cellW: cellW, cellH: cellH, originX: originX, origY: origY,
		cells:    make(map[gridKey][]int),
		floorDiv: floorDiv,
	}
}

func (g *Grid[T]) cellFor(x, y T) gridKey {
	return gridKey{cx: g.floorDiv(x-g.originX, g.cellW), cy: g.floorDiv(y-g.origY, g.cellH)}
}

func (g *Grid[T]) cellsFor(box aabb.Aabb2D[T]) []gridKey {
	minCell := g.cellFor(box.MinX, box.MinY)
	maxCell := g.cellFor(box.MaxX, box.MaxY)
	var out []gridKey
	for cy := minCell.cy; cy <= maxCell.cy; cy++ {
		for cx := minCell.cx; cx <= maxCell.cx; cx++ {
			out = append(out, gridKey{cx, cy})
		}
	}
	return out
}

func (g *Grid[T]) ensure(slot int) {
	for len(g.boxes) <= slot {
		g.boxes = append(g.boxes, nil)
	}
}

func (g *Grid[T]) Insert(slot int, box aabb.Aabb2D[T]) {
	g.ensure(slot)
	b := box
	g.boxes[slot] = &b
	for _, k := range g.cellsFor(box) {
		g.cells[k] = append(g.cells[k], slot)
	}
}

func (g *Grid[T]) Update(slot int, box aabb.Aabb2D[T]) {
	g.Remove(slot)
	g.Insert(slot, box)
}

func (g *Grid[T]) Remove(slot int) {
	if slot < 0 || slot >= len(g.boxes) || g.boxes[slot] == nil {
		return
	}
	for _, k := range g.cellsFor(*g.boxes[slot]) {
		g.removeFromCell(k, slot)
	}
	g.boxes[slot] = nil
}

func (g *Grid[T]) removeFromCell(k gridKey, slot int) {
	list := g.cells[k]
	for i, s := range list {
		if s == slot {
			list[i] = list[len(list)-1]
			g.cells[k] = list[:len(list)-1]
			return
		}
	}
}

func (g *Grid[T]) Clear() {
	g.boxes = nil
	g.cells = make(map[gridKey][]int)
}

func (g *Grid[T]) Commit() {}

func (g *Grid[T]) QueryPoint(x, y T) []int {
	k := g.cellFor(x, y)
	var out []int
	for _, slot := range g.cells[k] {
		if g.boxes[slot] != nil && g.boxes[slot].ContainsPoint(x, y) {
			out = append(out, slot)
		}
	}
	return out
}

func (g *Grid[T]) QueryRect(rect aabb.Aabb2D[T]) []int {
	seen := make(map[int]bool)
	var out []int
	for _, k := range g.cellsFor(rect) {
		for _, slot := range g.cells[k] {
			if seen[slot] {
				continue
			}
			if g.boxes[slot] != nil && g.boxes[slot].Intersects(rect) {
				seen[slot] = true
				out = append(out, slot)
			}
		}
	}
	return out
}
