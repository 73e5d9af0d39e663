package boxtree

import (
	"sort"

	"github.com/understory-go/spatial/internal/spatial/aabb"
	"github.com/understory-go/spatial/internal/spatial/geom"
	"github.com/understory-go/spatial/internal/spatial/index"
)

type dirtyFlags struct {
	layout, transform, clip, z, index bool
}

func allDirty() dirtyFlags {
	return dirtyFlags{layout: true, transform: true, clip: true, z: true, index: true}
}

type worldNode struct {
	transform geom.Affine
	bounds    geom.Rect
	clip      *geom.Rect // effective_clip_world: nil means unclipped
}

type node struct {
	generation uint32
	hasParent  bool
	parent     NodeId
	children   []NodeId

	local LocalNode
	world worldNode
	dirty dirtyFlags

	hasIndexKey bool
	indexKey    index.Key

	// dfsOrder is the node's position in the most recent preorder commit
	// walk, used as the final tiebreak for hit-test ranking when two
	// candidates' ancestor z-tuples are equal or one is a prefix of the
	// other.
	dfsOrder int
}

// Tree is a generational scene hierarchy: nodes carry a local transform,
// clip, z-index and bounds; Commit recomputes world-space state, drives
// the underlying spatial index, and reports the resulting Damage.
type Tree[B index.Backend[float64]] struct {
	nodes    []*node
	freeList []int
	// freedGen remembers the last generation used for each slot, indexed
	// by slot, so a reused slot's next handle is strictly newer than any
	// handle issued before it was freed.
	freedGen []uint32
	roots    []NodeId
	idx      *index.IndexGeneric[float64, struct{}, B]
	nextDfs  int
}

// New builds an empty Tree backed by the given spatial index backend.
func New[B index.Backend[float64]](backend B) *Tree[B] {
	return &Tree[B]{idx: index.NewIndexGeneric[float64, struct{}, B](backend)}
}

func (t *Tree[B]) alive(slot int) bool {
	return slot >= 0 && slot < len(t.nodes) && t.nodes[slot] != nil
}

// IsAlive reports whether id still refers to a live node.
func (t *Tree[B]) IsAlive(id NodeId) bool {
	slot := int(id.slot)
	return t.alive(slot) && t.nodes[slot].generation == id.generation
}

func (t *Tree[B]) get(id NodeId) *node {
	if !t.IsAlive(id) {
		return nil
	}
	return t.nodes[id.slot]
}

// Insert adds a new node under parent (or as a root if parent is nil) and
// returns its handle. The node is born fully dirty so the next Commit
// recomputes and indexes it.
func (t *Tree[B]) Insert(parent *NodeId, local LocalNode) NodeId {
	var slot int
	var generation uint32
	if n := len(t.freeList); n > 0 {
		slot = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		generation = t.lastGeneration(slot) + 1
	} else {
		slot = len(t.nodes)
		t.nodes = append(t.nodes, nil)
		generation = 1
	}
	n := &node{generation: generation, local: local, dirty: allDirty()}
	t.nodes[slot] = n
	id := NodeId{slot: uint32(slot), generation: generation}

	if parent != nil {
		if p := t.get(*parent); p != nil {
			n.hasParent = true
			n.parent = *parent
			p.children = append(p.children, id)
		} else {
			t.roots = append(t.roots, id)
		}
	} else {
		t.roots = append(t.roots, id)
	}
	return id
}

func (t *Tree[B]) lastGeneration(slot int) uint32 {
	if slot < 0 || slot >= len(t.freedGen) {
		return 0
	}
	return t.freedGen[slot]
}

// Remove deletes id and its entire subtree immediately: unlinks it from
// its parent, recursively frees every descendant, and stages an index
// removal for every node that had one. The removal reaches the backend
// (and produces Damage) at the next Commit.
func (t *Tree[B]) Remove(id NodeId) {
	n := t.get(id)
	if n == nil {
		return
	}
	if n.hasParent {
		if p := t.get(n.parent); p != nil {
			p.children = removeNodeId(p.children, id)
		}
	} else {
		t.roots = removeNodeId(t.roots, id)
	}
	t.removeSubtree(id)
}

func (t *Tree[B]) removeSubtree(id NodeId) {
	n := t.get(id)
	if n == nil {
		return
	}
	for _, c := range n.children {
		t.removeSubtree(c)
	}
	if n.hasIndexKey {
		_ = t.idx.Remove(n.indexKey)
	}
	t.freedGenSet(int(id.slot), id.generation)
	t.nodes[id.slot] = nil
	t.freeList = append(t.freeList, int(id.slot))
}

func (t *Tree[B]) freedGenSet(slot int, gen uint32) {
	for len(t.freedGen) <= slot {
		t.freedGen = append(t.freedGen, 0)
	}
	t.freedGen[slot] = gen
}

func removeNodeId(list []NodeId, id NodeId) []NodeId {
	out := list[:0:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Reparent moves id (and its subtree, transforms and all) under newParent,
// or to the root set if newParent is nil. The whole subtree is marked
// dirty since its ancestor chain, and therefore its composed transform and
// clip, has changed.
func (t *Tree[B]) Reparent(id NodeId, newParent *NodeId) {
	n := t.get(id)
	if n == nil {
		return
	}
	if n.hasParent {
		if p := t.get(n.parent); p != nil {
			p.children = removeNodeId(p.children, id)
		}
	} else {
		t.roots = removeNodeId(t.roots, id)
	}

	if newParent != nil {
		if p := t.get(*newParent); p != nil {
			n.hasParent = true
			n.parent = *newParent
			p.children = append(p.children, id)
		} else {
			n.hasParent = false
			t.roots = append(t.roots, id)
		}
	} else {
		n.hasParent = false
		t.roots = append(t.roots, id)
	}
	t.markSubtreeDirty(id, allDirty())
}

func (t *Tree[B]) markSubtreeDirty(id NodeId, flags dirtyFlags) {
	n := t.get(id)
	if n == nil {
		return
	}
	mergeDirty(&n.dirty, flags)
	for _, c := range n.children {
		t.markSubtreeDirty(c, flags)
	}
}

func mergeDirty(d *dirtyFlags, flags dirtyFlags) {
	d.layout = d.layout || flags.layout
	d.transform = d.transform || flags.transform
	d.clip = d.clip || flags.clip
	d.z = d.z || flags.z
	d.index = d.index || flags.index
}

// SetLocalTransform replaces id's local transform. A transform change
// invalidates the composed world_transform and world_bounds of id and
// every descendant.
func (t *Tree[B]) SetLocalTransform(id NodeId, tf geom.Affine) {
	n := t.get(id)
	if n == nil {
		return
	}
	n.local.LocalTransform = tf
	t.markSubtreeDirty(id, dirtyFlags{transform: true, index: true})
}

// SetLocalClip replaces id's local clip (nil clears it). A clip change
// invalidates id's own and every descendant's effective_clip_world and
// world_bounds.
func (t *Tree[B]) SetLocalClip(id NodeId, clip *geom.RoundedRect) {
	n := t.get(id)
	if n == nil {
		return
	}
	n.local.LocalClip = clip
	t.markSubtreeDirty(id, dirtyFlags{clip: true, index: true})
}

// SetLocalBounds replaces id's untransformed bounds. Only id's own
// world_bounds is affected; children's clip/transform are untouched.
func (t *Tree[B]) SetLocalBounds(id NodeId, bounds geom.Rect) {
	n := t.get(id)
	if n == nil {
		return
	}
	n.local.LocalBounds = bounds
	mergeDirty(&n.dirty, dirtyFlags{layout: true, index: true})
}

// SetZIndex replaces id's sibling stacking order. Does not affect bounds.
func (t *Tree[B]) SetZIndex(id NodeId, z int32) {
	n := t.get(id)
	if n == nil {
		return
	}
	n.local.ZIndex = z
	mergeDirty(&n.dirty, dirtyFlags{z: true})
}

// SetFlags replaces id's visibility/pickability flags.
func (t *Tree[B]) SetFlags(id NodeId, flags NodeFlags) {
	n := t.get(id)
	if n == nil {
		return
	}
	n.local.Flags = flags
}

// ZIndex returns id's z-index, or ok=false if id is not alive.
func (t *Tree[B]) ZIndex(id NodeId) (int32, bool) {
	n := t.get(id)
	if n == nil {
		return 0, false
	}
	return n.local.ZIndex, true
}

// ParentOf returns id's parent, or ok=false if id is a root or not alive.
func (t *Tree[B]) ParentOf(id NodeId) (NodeId, bool) {
	n := t.get(id)
	if n == nil || !n.hasParent {
		return NodeId{}, false
	}
	return n.parent, true
}

// WorldTransform returns id's last-committed world transform.
func (t *Tree[B]) WorldTransform(id NodeId) (geom.Affine, bool) {
	n := t.get(id)
	if n == nil {
		return geom.Affine{}, false
	}
	return n.world.transform, true
}

// WorldBounds returns id's last-committed world bounds.
func (t *Tree[B]) WorldBounds(id NodeId) (geom.Rect, bool) {
	n := t.get(id)
	if n == nil {
		return geom.Rect{}, false
	}
	return n.world.bounds, true
}

// Commit recomputes world-space state for every node whose dirtiness
// (its own, or inherited from an ancestor) demands it, then drives the
// spatial index with the result:
//  1. In preorder, a dirty ancestor's transform/clip dirtiness forces
//     recomputation of every descendant even if the descendant has no
//     local change of its own.
//  2. For each forced-or-dirty node, recompute world_transform,
//     effective_clip_world (intersecting the parent's with this node's
//     own clip AABB, if any) and world_bounds.
//  3. Sync the node's index entry: insert if it has none, remove it if
//     the new bounds are empty, update it otherwise (the index reports no
//     Moved damage for an update whose box is unchanged).
//  4. Call the index's own Commit and translate its Damage into world
//     Rects.
func (t *Tree[B]) Commit() Damage {
	t.nextDfs = 0
	for _, r := range t.roots {
		t.commitRecursive(r, geom.Identity(), nil, false)
	}
	idxDmg := t.idx.Commit()
	return Damage{
		Added:   toRects(idxDmg.Added),
		Removed: toRects(idxDmg.Removed),
		Moved:   toRectPairs(idxDmg.Moved),
	}
}

func toRects(boxes []aabb.Aabb2D[float64]) []geom.Rect {
	if len(boxes) == 0 {
		return nil
	}
	out := make([]geom.Rect, len(boxes))
	for i, b := range boxes {
		out[i] = geom.RectFromAabb(b)
	}
	return out
}

func toRectPairs(pairs [][2]aabb.Aabb2D[float64]) [][2]geom.Rect {
	if len(pairs) == 0 {
		return nil
	}
	out := make([][2]geom.Rect, len(pairs))
	for i, p := range pairs {
		out[i] = [2]geom.Rect{geom.RectFromAabb(p[0]), geom.RectFromAabb(p[1])}
	}
	return out
}

func (t *Tree[B]) commitRecursive(id NodeId, parentTransform geom.Affine, parentClip *geom.Rect, forced bool) {
	n := t.get(id)
	if n == nil {
		return
	}
	n.dfsOrder = t.nextDfs
	t.nextDfs++

	needsRecompute := forced || n.dirty.transform || n.dirty.clip || n.dirty.layout

	worldTransform := n.world.transform
	worldClip := n.world.clip
	worldBounds := n.world.bounds

	if needsRecompute {
		worldTransform = parentTransform.Mul(n.local.LocalTransform)

		if n.local.LocalClip != nil {
			ownClipWorld := worldTransform.TransformRect(n.local.LocalClip.Rect)
			if parentClip != nil {
				intersected := ownClipWorld.Intersect(*parentClip)
				worldClip = &intersected
			} else {
				worldClip = &ownClipWorld
			}
		} else {
			worldClip = parentClip
		}

		bounds := worldTransform.TransformRect(n.local.LocalBounds)
		if worldClip != nil {
			bounds = bounds.Intersect(*worldClip)
		}
		worldBounds = bounds

		n.world.transform = worldTransform
		n.world.clip = worldClip
		n.world.bounds = worldBounds
	}

	if needsRecompute || n.dirty.index {
		t.syncIndex(n, worldBounds)
	}

	n.dirty = dirtyFlags{}

	for _, c := range n.children {
		t.commitRecursive(c, worldTransform, worldClip, needsRecompute)
	}
}

func (t *Tree[B]) syncIndex(n *node, bounds geom.Rect) {
	if bounds.IsEmpty() {
		if n.hasIndexKey {
			_ = t.idx.Remove(n.indexKey)
			n.hasIndexKey = false
		}
		return
	}
	box := bounds.ToAabb()
	if !n.hasIndexKey {
		key, err := t.idx.Insert(box, struct{}{})
		if err == nil {
			n.hasIndexKey = true
			n.indexKey = key
		}
		return
	}
	_ = t.idx.Update(n.indexKey, box)
}

// ancestorsVisible reports whether every ancestor of id (id itself is not
// checked) has FlagVisible set. A hidden ancestor hides the whole subtree
// regardless of the subtree's own flags.
func (t *Tree[B]) ancestorsVisible(id NodeId) bool {
	n := t.get(id)
	if n == nil || !n.hasParent {
		return true
	}
	for cur := n.parent; ; {
		p := t.get(cur)
		if p == nil {
			return true
		}
		if !p.local.Flags.Has(FlagVisible) {
			return false
		}
		if !p.hasParent {
			return true
		}
		cur = p.parent
	}
}

// pathToRoot returns [root, ..., id].
func (t *Tree[B]) pathToRoot(id NodeId) []NodeId {
	var rev []NodeId
	for cur, ok := id, true; ok; {
		rev = append(rev, cur)
		n := t.get(cur)
		if n == nil || !n.hasParent {
			break
		}
		cur = n.parent
	}
	out := make([]NodeId, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}

func (t *Tree[B]) zTuple(path []NodeId) []int32 {
	out := make([]int32, len(path))
	for i, id := range path {
		n := t.get(id)
		if n != nil {
			out[i] = n.local.ZIndex
		}
	}
	return out
}

// compareZTuple compares two ancestor z-tuples lexicographically: the
// first differing ancestor's z decides. If one tuple is a strict prefix of
// the other (an ancestor and its own descendant both matched), they
// compare equal here; the caller breaks that tie by DFS order.
func compareZTuple(a, b []int32) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// HitTestPoint finds the topmost node (by global z-order: ancestor z-tuple
// compared lexicographically from the root, then DFS order, a descendant
// outranking its own ancestor on a tie) containing pt, subject to filter
// and to the node's own precise local-bounds and clip test. An ancestor
// with FlagVisible unset hides its whole subtree regardless of filter.
func (t *Tree[B]) HitTestPoint(x, y float64, filter QueryFilter) (Hit, bool) {
	candidates := t.idx.QueryPoint(x, y)

	var bestID NodeId
	var bestZTuple []int32
	var bestDfs int
	found := false

	for _, res := range candidates {
		id := NodeId{slot: res.Key.Slot(), generation: res.Key.Generation()}
		n := t.get(id)
		if n == nil {
			continue
		}
		if filter.VisibleOnly && !n.local.Flags.Has(FlagVisible) {
			continue
		}
		if filter.PickableOnly && !n.local.Flags.Has(FlagPickable) {
			continue
		}
		if !t.ancestorsVisible(id) {
			continue
		}

		inv := n.world.transform.Invert()
		lx, ly := inv.Apply(x, y)
		if !n.local.LocalBounds.Contains(lx, ly) {
			continue
		}
		if n.local.LocalClip != nil && !n.local.LocalClip.Contains(lx, ly) {
			continue
		}

		zt := t.zTuple(t.pathToRoot(id))
		if !found {
			bestID, bestZTuple, bestDfs, found = id, zt, n.dfsOrder, true
			continue
		}
		switch cmp := compareZTuple(zt, bestZTuple); {
		case cmp > 0:
			bestID, bestZTuple, bestDfs = id, zt, n.dfsOrder
		case cmp == 0 && n.dfsOrder > bestDfs:
			bestID, bestZTuple, bestDfs = id, zt, n.dfsOrder
		}
	}

	if !found {
		return Hit{}, false
	}
	return Hit{Node: bestID, Path: t.pathToRoot(bestID)}, true
}

type intersectCandidate struct {
	id      NodeId
	zTuple  []int32
	siblingZ int32
	dfs     int
}

// IntersectRect returns every node whose world bounds intersect rect,
// subject to filter's VisibleOnly (PickableOnly is not applied here,
// matching the underlying index query's own semantics), ordered in
// painter's order back-to-front: ascending by (ancestor z-tuple, sibling
// z, stable insertion/DFS order), so the caller can composite front things
// last or walk from the end for topmost-first.
func (t *Tree[B]) IntersectRect(rect geom.Rect, filter QueryFilter) []Hit {
	results := t.idx.QueryRect(rect.ToAabb())

	candidates := make([]intersectCandidate, 0, len(results))
	for _, res := range results {
		id := NodeId{slot: res.Key.Slot(), generation: res.Key.Generation()}
		n := t.get(id)
		if n == nil {
			continue
		}
		if filter.VisibleOnly && !n.local.Flags.Has(FlagVisible) {
			continue
		}
		if !t.ancestorsVisible(id) {
			continue
		}
		path := t.pathToRoot(id)
		candidates = append(candidates, intersectCandidate{
			id:       id,
			zTuple:   t.zTuple(path),
			siblingZ: n.local.ZIndex,
			dfs:      n.dfsOrder,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if c := compareZTuple(candidates[i].zTuple, candidates[j].zTuple); c != 0 {
			return c < 0
		}
		if candidates[i].siblingZ != candidates[j].siblingZ {
			return candidates[i].siblingZ < candidates[j].siblingZ
		}
		return candidates[i].dfs < candidates[j].dfs
	})

	out := make([]Hit, len(candidates))
	for i, c := range candidates {
		out[i] = Hit{Node: c.id, Path: t.pathToRoot(c.id)}
	}
	return out
}
