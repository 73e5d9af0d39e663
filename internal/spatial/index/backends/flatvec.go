// Package backends collects the Backend implementations pluggable into an
// IndexGeneric: a linear-scan default, an R-tree, a BVH, and a uniform
// grid.
package backends

import "github.com/understory-go/spatial/internal/spatial/aabb"

// FlatVec is the simplest possible backend: a dense slice of optional
// boxes, scanned linearly on every query. It is the default backend,
// favored for small entry counts or update-heavy workloads where the
// bookkeeping of a tree structure would outweigh its benefit.
type FlatVec[T aabb.Number] struct {
	entries []*aabb.Aabb2D[T]
}

// NewFlatVec builds an empty FlatVec backend.
func NewFlatVec[T aabb.Number]() *FlatVec[T] {
	return &FlatVec[T]{}
}

func (f *FlatVec[T]) ensure(slot int) {
	for len(f.entries) <= slot {
		f.entries = append(f.entries, nil)
	}
}

func (f *FlatVec[T]) Insert(slot int, box aabb.Aabb2D[T]) {
	f.ensure(slot)
	b := box
	f.entries[slot] = &b
}

func (f *FlatVec[T]) Update(slot int, box aabb.Aabb2D[T]) {
	f.Insert(slot, box)
}

func (f *FlatVec[T]) Remove(slot int) {
	if slot >= 0 && slot < len(f.entries) {
		f.entries[slot] = nil
	}
}

func (f *FlatVec[T]) Clear() {
	f.entries = nil
}

func (f *FlatVec[T]) Commit() {}

func (f *FlatVec[T]) QueryPoint(x, y T) []int {
	var out []int
	for slot, box := range f.entries {
		if box != nil && box.ContainsPoint(x, y) {
			out = append(out, slot)
		}
	}
	return out
}

func (f *FlatVec[T]) QueryRect(rect aabb.Aabb2D[T]) []int {
	var out []int
	for slot, box := range f.entries {
		if box != nil && box.Intersects(rect) {
			out = append(out, slot)
		}
	}
	return out
}
