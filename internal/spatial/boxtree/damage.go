package boxtree

import "github.com/understory-go/spatial/internal/spatial/geom"

// Damage reports the world-space effect of a Commit: rects added, rects
// removed, and (previous, current) pairs for rects that moved. It mirrors
// the underlying index's own Damage shape, re-expressed in world Rects,
// since the index's own add/remove/move bookkeeping already dedupes a
// node whose committed bounds end up unchanged (Update on an unchanged box
// produces no Moved entry).
type Damage struct {
	Added   []geom.Rect
	Removed []geom.Rect
	Moved   [][2]geom.Rect
}

// IsEmpty reports whether the commit produced no damage at all.
func (d Damage) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Moved) == 0
}

// UnionRect returns the smallest rect covering every rect touched by the
// damage, or ok=false if the damage is empty.
func (d Damage) UnionRect() (rect geom.Rect, ok bool) {
	first := true
	accumulate := func(r geom.Rect) {
		if first {
			rect = r
			first = false
			return
		}
		rect = rect.Union(r)
	}
	for _, r := range d.Added {
		accumulate(r)
	}
	for _, r := range d.Removed {
		accumulate(r)
	}
	for _, pair := range d.Moved {
		accumulate(pair[0])
		accumulate(pair[1])
	}
	return rect, !first
}
