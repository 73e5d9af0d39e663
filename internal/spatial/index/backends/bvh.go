package backends

import (
	"sort"

	"github.com/understory-go/spatial/internal/spatial/aabb"
)

type bvhItem[T aabb.Number] struct {
	slot int
	box  aabb.Aabb2D[T]
}

type bvhNode[T aabb.Number] struct {
	box         aabb.Aabb2D[T]
	leaf        bool
	items       []bvhItem[T]
	left, right *bvhNode[T]
}

type bvhPendingOp[T aabb.Number] struct {
	slot   int
	box    aabb.Aabb2D[T]
	remove bool
}

// BVH is a bulk-built binary hierarchy backend. Unlike the incremental,
// always-restructuring insert/remove of a classic BVH, Insert and Remove
// here only mark the tree dirty; Commit decides whether the accumulated
// dirty fraction warrants a full rebuild or a cheaper bottom-up refit that
// leaves the existing topology alone.
type BVH[T aabb.Number] struct {
	scalar           aabb.Scalar[T]
	leafMax          int
	rebuildThreshold float64
	root             *bvhNode[T]
	slots            []*aabb.Aabb2D[T]
	pending          []bvhPendingOp[T]
	baseline         int
}

// NewBVH builds an empty BVH backend with the given leaf capacity and
// dirty-fraction rebuild threshold.
func NewBVH[T aabb.Number](scalar aabb.Scalar[T], leafMax int, rebuildThreshold float64) *BVH[T] {
	if leafMax < 1 {
		leafMax = 4
	}
	if rebuildThreshold <= 0 {
		rebuildThreshold = 0.2
	}
	return &BVH[T]{scalar: scalar, leafMax: leafMax, rebuildThreshold: rebuildThreshold}
}

// NewBVHF64 builds a BVH with the spec default leaf_max/rebuild_threshold
// (4, 0.2) for float64 coordinates.
func NewBVHF64() *BVH[float64] { return NewBVH[float64](aabb.Float64Scalar{}, 4, 0.2) }

// NewBVHF32 builds a BVH with the spec default leaf_max/rebuild_threshold
// (4, 0.2) for float32 coordinates.
func NewBVHF32() *BVH[float32] { return NewBVH[float32](aabb.Float32Scalar{}, 4, 0.2) }

// NewBVHI64 builds a BVH with the spec default leaf_max/rebuild_threshold
// (4, 0.2) for int64 coordinates.
func NewBVHI64() *BVH[int64] { return NewBVH[int64](aabb.Int64Scalar{}, 4, 0.2) }

func (b *BVH[T]) ensureSlot(slot int) {
	for len(b.slots) <= slot {
		b.slots = append(b.slots, nil)
	}
}

func (b *BVH[T]) liveCount() int {
	n := 0
	for _, s := range b.slots {
		if s != nil {
			n++
		}
	}
	return n
}

func (b *BVH[T]) Insert(slot int, box aabb.Aabb2D[T]) {
	b.ensureSlot(slot)
	bb := box
	b.slots[slot] = &bb
	b.pending = append(b.pending, bvhPendingOp[T]{slot: slot, box: box})
}

func (b *BVH[T]) Remove(slot int) {
	if slot < 0 || slot >= len(b.slots) || b.slots[slot] == nil {
		return
	}
	old := *b.slots[slot]
	b.slots[slot] = nil
	b.pending = append(b.pending, bvhPendingOp[T]{slot: slot, box: old, remove: true})
}

// Update decomposes into remove+insert, as the spec prescribes, so both
// halves count toward the dirty fraction evaluated at the next commit.
func (b *BVH[T]) Update(slot int, box aabb.Aabb2D[T]) {
	if slot >= 0 && slot < len(b.slots) && b.slots[slot] != nil {
		old := *b.slots[slot]
		b.pending = append(b.pending, bvhPendingOp[T]{slot: slot, box: old, remove: true})
	}
	b.ensureSlot(slot)
	bb := box
	b.slots[slot] = &bb
	b.pending = append(b.pending, bvhPendingOp[T]{slot: slot, box: box})
}

func (b *BVH[T]) Clear() {
	b.root = nil
	b.slots = nil
	b.pending = nil
	b.baseline = 0
}

// Commit resolves every Insert/Remove since the last commit: a full
// rebuild if the dirty fraction (ops pending in this commit, relative to
// the live count after the previous commit) exceeds rebuildThreshold,
// otherwise a
// structural patch (remove from leaves, attach new items to the nearest
// leaf by least enlargement) followed by a bottom-up bbox refit.
func (b *BVH[T]) Commit() {
	if len(b.pending) == 0 {
		return
	}
	baseline := b.baseline
	if baseline < 1 {
		baseline = 1
	}
	fraction := float64(len(b.pending)) / float64(baseline)
	if b.root == nil || fraction > b.rebuildThreshold {
		b.rebuild()
	} else {
		for _, op := range b.pending {
			if op.remove {
				removeFromBVHNode(b.root, op.slot, op.box)
			} else {
				b.attachToNearestLeaf(b.root, bvhItem[T]{slot: op.slot, box: op.box})
			}
		}
		refitBVHNode(b.root)
	}
	b.pending = b.pending[:0]
	b.baseline = b.liveCount()
}

func (b *BVH[T]) rebuild() {
	var items []bvhItem[T]
	for slot, box := range b.slots {
		if box != nil {
			items = append(items, bvhItem[T]{slot: slot, box: *box})
		}
	}
	b.root = bulkBuildBVH(b.scalar, items, b.leafMax)
}

func (b *BVH[T]) attachToNearestLeaf(n *bvhNode[T], item bvhItem[T]) {
	if n.leaf {
		n.items = append(n.items, item)
		n.box = aabb.Union(n.box, item.box)
		return
	}
	costL := b.scalar.Area(aabb.Union(n.left.box, item.box)).Sub(b.scalar.Area(n.left.box))
	costR := b.scalar.Area(aabb.Union(n.right.box, item.box)).Sub(b.scalar.Area(n.right.box))
	if !costR.Less(costL) {
		b.attachToNearestLeaf(n.left, item)
	} else {
		b.attachToNearestLeaf(n.right, item)
	}
	n.box = aabb.Union(n.box, item.box)
}

func removeFromBVHNode[T aabb.Number](n *bvhNode[T], slot int, old aabb.Aabb2D[T]) bool {
	if n == nil || n.box.Intersect(old).IsEmpty() {
		return false
	}
	if n.leaf {
		out := n.items[:0:0]
		removed := false
		for _, it := range n.items {
			if it.slot == slot {
				removed = true
				continue
			}
			out = append(out, it)
		}
		n.items = out
		return removed
	}
	removedL := removeFromBVHNode(n.left, slot, old)
	removedR := removeFromBVHNode(n.right, slot, old)
	return removedL || removedR
}

func refitBVHNode[T aabb.Number](n *bvhNode[T]) {
	if n == nil {
		return
	}
	if n.leaf {
		n.box = bboxItems(n.items)
		return
	}
	refitBVHNode(n.left)
	refitBVHNode(n.right)
	n.box = aabb.Union(n.left.box, n.right.box)
}

func bboxItems[T aabb.Number](items []bvhItem[T]) aabb.Aabb2D[T] {
	if len(items) == 0 {
		var zero T
		return aabb.New(zero, zero, zero, zero)
	}
	acc := items[0].box
	for _, it := range items[1:] {
		acc = aabb.Union(acc, it.box)
	}
	return acc
}

// bulkBuildBVH recursively top-down partitions items into a binary
// hierarchy, splitting by the SAH-like cost minimized across both axes
// until every leaf holds at most leafMax items.
func bulkBuildBVH[T aabb.Number](scalar aabb.Scalar[T], items []bvhItem[T], leafMax int) *bvhNode[T] {
	if len(items) == 0 {
		return nil
	}
	if len(items) <= leafMax {
		return &bvhNode[T]{leaf: true, items: items, box: bboxItems(items)}
	}
	left, right := splitSAH(scalar, items, leafMax)
	ln := bulkBuildBVH(scalar, left, leafMax)
	rn := bulkBuildBVH(scalar, right, leafMax)
	return &bvhNode[T]{leaf: false, left: ln, right: rn, box: aabb.Union(ln.box, rn.box)}
}

// splitSAH sorts items along each axis by centroid, then picks the split
// point k minimizing area(prefix_k)*k + area(suffix_k)*(n-k) in a widened
// accumulator, trying both axes and keeping the cheaper split.
func splitSAH[T aabb.Number](scalar aabb.Scalar[T], items []bvhItem[T], leafMax int) ([]bvhItem[T], []bvhItem[T]) {
	n := len(items)
	minChildren := leafMax / 2
	if minChildren < 2 {
		minChildren = 2
	}
	if capN := n - 2; minChildren > capN {
		minChildren = capN
	}
	if minChildren < 1 {
		minChildren = 1
	}

	var bestCost aabb.Cost
	var bestLeft, bestRight []bvhItem[T]

	for axis := 0; axis < 2; axis++ {
		v := make([]bvhItem[T], n)
		copy(v, items)
		sort.SliceStable(v, func(i, j int) bool {
			var ci, cj T
			if axis == 0 {
				ci = scalar.Mid(v[i].box.MinX, v[i].box.MaxX)
				cj = scalar.Mid(v[j].box.MinX, v[j].box.MaxX)
			} else {
				ci = scalar.Mid(v[i].box.MinY, v[i].box.MaxY)
				cj = scalar.Mid(v[j].box.MinY, v[j].box.MaxY)
			}
			return ci < cj
		})

		prefix := make([]aabb.Aabb2D[T], n)
		for i, it := range v {
			if i == 0 {
				prefix[i] = it.box
			} else {
				prefix[i] = aabb.Union(prefix[i-1], it.box)
			}
		}
		suffix := make([]aabb.Aabb2D[T], n)
		for i := n - 1; i >= 0; i-- {
			if i == n-1 {
				suffix[i] = v[i].box
			} else {
				suffix[i] = aabb.Union(v[i].box, suffix[i+1])
			}
		}

		for k := minChildren; k <= n-minChildren; k++ {
			lb := prefix[k-1]
			rb := suffix[k]
			cost := scaleCost(scalar.Area(lb), k).Add(scaleCost(scalar.Area(rb), n-k))
			if bestCost == nil || cost.Less(bestCost) {
				bestCost = cost
				bestLeft = append([]bvhItem[T]{}, v[:k]...)
				bestRight = append([]bvhItem[T]{}, v[k:]...)
			}
		}
	}
	return bestLeft, bestRight
}

func (b *BVH[T]) QueryPoint(x, y T) []int {
	if b.root == nil {
		return nil
	}
	p := aabb.New(x, y, x, y)
	var out []int
	var walk func(n *bvhNode[T])
	walk = func(n *bvhNode[T]) {
		if n.box.Intersect(p).IsEmpty() {
			return
		}
		if n.leaf {
			for _, it := range n.items {
				if !it.box.Intersect(p).IsEmpty() {
					out = append(out, it.slot)
				}
			}
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(b.root)
	return out
}

func (b *BVH[T]) QueryRect(rect aabb.Aabb2D[T]) []int {
	if b.root == nil {
		return nil
	}
	var out []int
	var walk func(n *bvhNode[T])
	walk = func(n *bvhNode[T]) {
		if n.box.Intersect(rect).IsEmpty() {
			return
		}
		if n.leaf {
			for _, it := range n.items {
				if !it.box.Intersect(rect).IsEmpty() {
					out = append(out, it.slot)
				}
			}
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(b.root)
	return out
}
