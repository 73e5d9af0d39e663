package backends

import "github.com/understory-go/spatial/internal/spatial/aabb"

// rchild is one entry of an RTree node: either a pointer to a child node
// (internal entry) or a leaf-level data item identified by slot.
type rchild[T aabb.Number] struct {
	box   aabb.Aabb2D[T]
	child *rnode[T]
	slot  int
}

func (c rchild[T]) isNode() bool { return c.child != nil }

type rnode[T aabb.Number] struct {
	box      aabb.Aabb2D[T]
	leaf     bool
	children []rchild[T]
}

// RTree is an arena-free (pointer-linked) R-tree backend with Guttman
// quadratic splitting on leaf and internal overflow. Insertion descends by
// least enlargement; a tied quadratic split is broken by the SAH-like cost
// used in the original sort-based splitter, computed in a widened
// accumulator via Scalar.Area.
type RTree[T aabb.Number] struct {
	scalar  aabb.Scalar[T]
	minFill int
	maxFill int
	root    *rnode[T]
	slots   []*aabb.Aabb2D[T]
}

// NewRTree builds an empty R-tree with the given fill bounds. A minFill
// below 2 is replaced by 4, and a maxFill below 2*minFill is replaced by
// 8; with a minFill above 4 that replacement still leaves maxFill below
// 2*minFill.
func NewRTree[T aabb.Number](scalar aabb.Scalar[T], minFill, maxFill int) *RTree[T] {
	if minFill < 2 {
		minFill = 4
	}
	if maxFill < 2*minFill {
		maxFill = 8
	}
	return &RTree[T]{scalar: scalar, minFill: minFill, maxFill: maxFill}
}

// NewRTreeF64 builds an R-tree with the spec default fill bounds (4, 8) for
// float64 coordinates.
func NewRTreeF64() *RTree[float64] { return NewRTree[float64](aabb.Float64Scalar{}, 4, 8) }

// NewRTreeF32 builds an R-tree with the spec default fill bounds (4, 8) for
// float32 coordinates.
func NewRTreeF32() *RTree[float32] { return NewRTree[float32](aabb.Float32Scalar{}, 4, 8) }

// NewRTreeI64 builds an R-tree with the spec default fill bounds (4, 8) for
// int64 coordinates.
func NewRTreeI64() *RTree[int64] { return NewRTree[int64](aabb.Int64Scalar{}, 4, 8) }

func (t *RTree[T]) ensureSlot(slot int, box aabb.Aabb2D[T]) {
	for len(t.slots) <= slot {
		t.slots = append(t.slots, nil)
	}
	b := box
	t.slots[slot] = &b
}

func nodeBBox[T aabb.Number](children []rchild[T]) aabb.Aabb2D[T] {
	acc := children[0].box
	for _, c := range children[1:] {
		acc = aabb.Union(acc, c.box)
	}
	return acc
}

// scaleCost returns c added to itself n times (n >= 1), i.e. c*n, without
// requiring a Mul method on Cost. The R-tree split calls it with n bounded
// by maxFill+1; the BVH bulk build calls it with n up to the number of
// items being partitioned, costing O(n) additions per call.
func scaleCost(c aabb.Cost, n int) aabb.Cost {
	total := c
	for i := 1; i < n; i++ {
		total = total.Add(c)
	}
	return total
}

func (t *RTree[T]) sahSplitCost(left, right []rchild[T]) aabb.Cost {
	lc := scaleCost(t.scalar.Area(nodeBBox(left)), len(left))
	rc := scaleCost(t.scalar.Area(nodeBBox(right)), len(right))
	return lc.Add(rc)
}

func (t *RTree[T]) enlargeCost(existing, box aabb.Aabb2D[T]) aabb.Cost {
	u := aabb.Union(existing, box)
	return t.scalar.Area(u).Sub(t.scalar.Area(existing))
}

// chooseChild descends to the internal entry whose box enlarges least to
// admit box, breaking ties by smaller resulting area, then by fewer
// grandchildren.
func (t *RTree[T]) chooseChild(children []rchild[T], box aabb.Aabb2D[T]) int {
	best := 0
	var bestEnlarge, bestArea aabb.Cost
	bestCount := -1
	for i, c := range children {
		enlarge := t.enlargeCost(c.box, box)
		resultArea := t.scalar.Area(aabb.Union(c.box, box))
		count := len(c.child.children)
		if bestEnlarge == nil || enlarge.Less(bestEnlarge) {
			best, bestEnlarge, bestArea, bestCount = i, enlarge, resultArea, count
			continue
		}
		if !bestEnlarge.Less(enlarge) {
			// enlarge == bestEnlarge
			if resultArea.Less(bestArea) {
				best, bestEnlarge, bestArea, bestCount = i, enlarge, resultArea, count
				continue
			}
			if !bestArea.Less(resultArea) && count < bestCount {
				best, bestEnlarge, bestArea, bestCount = i, enlarge, resultArea, count
			}
		}
	}
	return best
}

// quadraticSplit implements Guttman's quadratic split: seed by the pair
// with the greatest combined dead area, then repeatedly assign the
// remaining entry with the largest preference difference to whichever
// group it enlarges least. Ties among equally-valid seed choices are
// broken by the lower SAH-like cost of the resulting split.
func (t *RTree[T]) quadraticSplit(children []rchild[T]) ([]rchild[T], []rchild[T]) {
	n := len(children)
	type seed struct{ i, j int }
	var bestDead aabb.Cost
	var seeds []seed
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			u := aabb.Union(children[i].box, children[j].box)
			dead := t.scalar.Area(u).Sub(t.scalar.Area(children[i].box)).Sub(t.scalar.Area(children[j].box))
			if bestDead == nil || bestDead.Less(dead) {
				bestDead = dead
				seeds = []seed{{i, j}}
			} else if !dead.Less(bestDead) {
				seeds = append(seeds, seed{i, j})
			}
		}
	}

	var bestLeft, bestRight []rchild[T]
	var bestCost aabb.Cost
	for _, s := range seeds {
		left, right := t.assignFromSeeds(children, s.i, s.j)
		cost := t.sahSplitCost(left, right)
		if bestCost == nil || cost.Less(bestCost) {
			bestCost, bestLeft, bestRight = cost, left, right
		}
	}
	return bestLeft, bestRight
}

// assignFromSeeds runs Guttman's PickNext assignment loop given two seed
// indices into children.
func (t *RTree[T]) assignFromSeeds(children []rchild[T], seedI, seedJ int) ([]rchild[T], []rchild[T]) {
	n := len(children)
	assigned := make([]bool, n)
	left := []rchild[T]{children[seedI]}
	right := []rchild[T]{children[seedJ]}
	assigned[seedI] = true
	assigned[seedJ] = true
	leftBox, rightBox := children[seedI].box, children[seedJ].box
	remaining := n - 2

	for remaining > 0 {
		if len(left)+remaining <= t.minFill {
			for i := 0; i < n; i++ {
				if !assigned[i] {
					left = append(left, children[i])
					assigned[i] = true
				}
			}
			break
		}
		if len(right)+remaining <= t.minFill {
			for i := 0; i < n; i++ {
				if !assigned[i] {
					right = append(right, children[i])
					assigned[i] = true
				}
			}
			break
		}

		pickIdx := -1
		var pickDiff aabb.Cost
		pickToLeft := true
		for i := 0; i < n; i++ {
			if assigned[i] {
				continue
			}
			dl := t.enlargeCost(leftBox, children[i].box)
			dr := t.enlargeCost(rightBox, children[i].box)
			var diff aabb.Cost
			toLeft := true
			if dl.Less(dr) {
				diff = dr.Sub(dl)
				toLeft = true
			} else {
				diff = dl.Sub(dr)
				toLeft = false
			}
			if pickDiff == nil || pickDiff.Less(diff) {
				pickIdx, pickDiff, pickToLeft = i, diff, toLeft
			}
		}

		assigned[pickIdx] = true
		remaining--
		if pickToLeft {
			left = append(left, children[pickIdx])
			leftBox = aabb.Union(leftBox, children[pickIdx].box)
		} else {
			right = append(right, children[pickIdx])
			rightBox = aabb.Union(rightBox, children[pickIdx].box)
		}
	}
	return left, right
}

func insertChild[T aabb.Number](children []rchild[T], i int, c rchild[T]) []rchild[T] {
	out := make([]rchild[T], 0, len(children)+1)
	out = append(out, children[:i+1]...)
	out = append(out, c)
	out = append(out, children[i+1:]...)
	return out
}

// insertNode inserts (slot, box) into the subtree rooted at n, returning a
// new sibling node if n overflowed and had to split.
func (t *RTree[T]) insertNode(n *rnode[T], slot int, box aabb.Aabb2D[T]) *rnode[T] {
	if n.leaf {
		n.children = append(n.children, rchild[T]{box: box, slot: slot})
		n.box = aabb.Union(n.box, box)
		if len(n.children) <= t.maxFill {
			return nil
		}
		left, right := t.quadraticSplit(n.children)
		n.children = left
		n.box = nodeBBox(left)
		return &rnode[T]{leaf: true, children: right, box: nodeBBox(right)}
	}

	idx := t.chooseChild(n.children, box)
	child := n.children[idx].child
	sibling := t.insertNode(child, slot, box)
	n.children[idx].box = child.box
	n.box = aabb.Union(n.box, box)
	if sibling != nil {
		n.children = insertChild(n.children, idx, rchild[T]{box: sibling.box, child: sibling})
	}
	if len(n.children) > t.maxFill {
		left, right := t.quadraticSplit(n.children)
		n.children = left
		n.box = nodeBBox(left)
		return &rnode[T]{leaf: false, children: right, box: nodeBBox(right)}
	}
	return nil
}

func (t *RTree[T]) Insert(slot int, box aabb.Aabb2D[T]) {
	t.ensureSlot(slot, box)
	if t.root == nil {
		t.root = &rnode[T]{leaf: true, box: box, children: []rchild[T]{{box: box, slot: slot}}}
		return
	}
	sibling := t.insertNode(t.root, slot, box)
	if sibling != nil {
		left := t.root
		t.root = &rnode[T]{
			leaf:     false,
			box:      aabb.Union(left.box, sibling.box),
			children: []rchild[T]{{box: left.box, child: left}, {box: sibling.box, child: sibling}},
		}
	}
}

// searchRemove removes slot from the subtree rooted at n, pruned by
// intersection with old (the entry's last known box), and reports whether
// anything was removed. Overlapping leaves mean more than one subtree can
// legitimately contain the box, so every intersecting branch is searched.
func (t *RTree[T]) searchRemove(n *rnode[T], slot int, old aabb.Aabb2D[T]) bool {
	if n.box.Intersect(old).IsEmpty() {
		return false
	}
	if n.leaf {
		out := n.children[:0:0]
		removed := false
		for _, c := range n.children {
			if c.slot == slot {
				removed = true
				continue
			}
			out = append(out, c)
		}
		if removed {
			n.children = out
			if len(n.children) > 0 {
				n.box = nodeBBox(n.children)
			}
		}
		return removed
	}

	removed := false
	for i := range n.children {
		if t.searchRemove(n.children[i].child, slot, old) {
			removed = true
			n.children[i].box = n.children[i].child.box
		}
	}
	if removed {
		out := n.children[:0:0]
		for _, c := range n.children {
			if len(c.child.children) > 0 {
				out = append(out, c)
			}
		}
		n.children = out
		if len(n.children) > 0 {
			n.box = nodeBBox(n.children)
		}
	}
	return removed
}

// updateInPlace rewrites slot's box in place without restructuring the
// tree, refitting the boxes of the nodes on the path back up (growing them
// to cover the new position if needed). It searches only subtrees whose
// box intersects the union of the old and new box, and reports false if
// slot is not found there.
func (t *RTree[T]) updateInPlace(n *rnode[T], slot int, old, next aabb.Aabb2D[T]) bool {
	interest := aabb.Union(old, next)
	if n.box.Intersect(interest).IsEmpty() {
		return false
	}
	if n.leaf {
		for i := range n.children {
			if n.children[i].slot == slot {
				n.children[i].box = next
				n.box = nodeBBox(n.children)
				return true
			}
		}
		return false
	}
	for i := range n.children {
		if t.updateInPlace(n.children[i].child, slot, old, next) {
			n.children[i].box = n.children[i].child.box
			n.box = nodeBBox(n.children)
			return true
		}
	}
	return false
}

func (t *RTree[T]) Update(slot int, box aabb.Aabb2D[T]) {
	if slot >= 0 && slot < len(t.slots) && t.slots[slot] != nil && t.root != nil {
		old := *t.slots[slot]
		if t.updateInPlace(t.root, slot, old, box) {
			t.ensureSlot(slot, box)
			return
		}
		t.searchRemove(t.root, slot, old)
	}
	t.Insert(slot, box)
}

func (t *RTree[T]) Remove(slot int) {
	if slot < 0 || slot >= len(t.slots) || t.slots[slot] == nil {
		return
	}
	if t.root != nil {
		t.searchRemove(t.root, slot, *t.slots[slot])
		if len(t.root.children) == 0 {
			t.root = nil
		}
	}
	t.slots[slot] = nil
}

func (t *RTree[T]) Clear() {
	t.root = nil
	t.slots = nil
}

func (t *RTree[T]) Commit() {}

func (t *RTree[T]) QueryPoint(x, y T) []int {
	if t.root == nil {
		return nil
	}
	p := aabb.New(x, y, x, y)
	var out []int
	var walk func(n *rnode[T])
	walk = func(n *rnode[T]) {
		if n.box.Intersect(p).IsEmpty() {
			return
		}
		if n.leaf {
			for _, c := range n.children {
				if !c.box.Intersect(p).IsEmpty() {
					out = append(out, c.slot)
				}
			}
			return
		}
		for _, c := range n.children {
			walk(c.child)
		}
	}
	walk(t.root)
	return out
}

func (t *RTree[T]) QueryRect(rect aabb.Aabb2D[T]) []int {
	if t.root == nil {
		return nil
	}
	var out []int
	var walk func(n *rnode[T])
	walk = func(n *rnode[T]) {
		if n.box.Intersect(rect).IsEmpty() {
			return
		}
		if n.leaf {
			for _, c := range n.children {
				if !c.box.Intersect(rect).IsEmpty() {
					out = append(out, c.slot)
				}
			}
			return
		}
		for _, c := range n.children {
			walk(c.child)
		}
	}
	walk(t.root)
	return out
}
