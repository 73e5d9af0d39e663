package index

import "github.com/understory-go/spatial/internal/spatial/aabb"

// Backend is the spatial strategy plugged into an IndexGeneric. Slots are
// dense indices into the index's own entry table; a backend is free to
// store whatever structure it likes keyed by slot.
type Backend[T aabb.Number] interface {
	Insert(slot int, box aabb.Aabb2D[T])
	Update(slot int, box aabb.Aabb2D[T])
	Remove(slot int)
	Clear()

	QueryPoint(x, y T) []int
	QueryRect(box aabb.Aabb2D[T]) []int

	// Commit lets a backend that batches structural changes (the BVH)
	// decide, once per IndexGeneric.Commit, whether to rebuild or merely
	// refit after the inserts/updates/removes of that commit. Backends
	// that apply every mutation immediately (FlatVec, RTree, Grid) treat
	// this as a no-op.
	Commit()
}
