package index

import "github.com/understory-go/spatial/internal/spatial/aabb"

// Damage reports the coarse effect of a Commit: boxes added, boxes removed,
// and (previous, current) pairs for boxes that moved. It never tries to
// coalesce overlapping rectangles into fewer, larger ones beyond the single
// Union below — that finer-grained damage minimization is out of scope.
type Damage[T aabb.Number] struct {
	Added   []aabb.Aabb2D[T]
	Removed []aabb.Aabb2D[T]
	Moved   [][2]aabb.Aabb2D[T]
}

// IsEmpty reports whether the commit produced no damage at all.
func (d Damage[T]) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Moved) == 0
}

// Union returns the smallest AABB covering every box touched by the
// damage, or ok=false if the damage is empty.
func (d Damage[T]) Union() (box aabb.Aabb2D[T], ok bool) {
	first := true
	accumulate := func(b aabb.Aabb2D[T]) {
		if first {
			box = b
			first = false
			return
		}
		box = aabb.Union(box, b)
	}
	for _, b := range d.Added {
		accumulate(b)
	}
	for _, b := range d.Removed {
		accumulate(b)
	}
	for _, pair := range d.Moved {
		accumulate(pair[0])
		accumulate(pair[1])
	}
	return box, !first
}
