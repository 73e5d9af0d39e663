// Package boxtreeadapter wires a box tree's hit tests into the responder
// package's ResolvedHit/ParentLookup/tie-break shapes. Grounded on
// original_source's adapters/box_tree.rs, which built each ResolvedHit
// with a hard-coded DepthKey::Z(0) and a "TODO: use the node's z-index
// for DepthKey when available" — this adapter closes that TODO by
// reading the node's real z-index off the tree.
package boxtreeadapter

import (
	"github.com/understory-go/spatial/internal/spatial/boxtree"
	"github.com/understory-go/spatial/internal/spatial/geom"
	"github.com/understory-go/spatial/internal/spatial/index"
	"github.com/understory-go/spatial/internal/spatial/responder"
)

// Meta carries no payload; box tree hits have nothing analogous to a
// text run or ray-hit detail.
type Meta = struct{}

// TopHitForPoint builds a single resolved hit for the topmost node under
// (x, y), or ok=false if nothing matches the filter. The hit's path is
// populated from the box tree's own hit-test result, so the router does
// not need a ParentLookup to route it. Its DepthKey is the node's real
// z-index (falling back to Z(0) if the node died between the hit test
// and this call, which the path it already carries makes irrelevant:
// a single candidate's depth key is never consulted).
func TopHitForPoint[B index.Backend[float64]](tree *boxtree.Tree[B], x, y float64, filter boxtree.QueryFilter) (responder.ResolvedHit[boxtree.NodeId, Meta], bool) {
	hit, ok := tree.HitTestPoint(x, y, filter)
	if !ok {
		return responder.ResolvedHit[boxtree.NodeId, Meta]{}, false
	}
	z, _ := tree.ZIndex(hit.Node)
	return responder.ResolvedHit[boxtree.NodeId, Meta]{
		Node:     hit.Node,
		Path:     hit.Path,
		DepthKey: responder.Z(z),
	}, true
}

// HitsForRect builds resolved hits for every node intersecting rect. Path
// is left nil; a router constructed with a ParentLookup (see ParentLookup
// and NewRouter) reconstructs it, or it falls back to a singleton path.
// Each hit's DepthKey carries the node's real z-index so a router can
// rank overlapping candidates without a separate z lookup.
func HitsForRect[B index.Backend[float64]](tree *boxtree.Tree[B], rect geom.Rect, filter boxtree.QueryFilter) []responder.ResolvedHit[boxtree.NodeId, Meta] {
	hits := tree.IntersectRect(rect, filter)
	out := make([]responder.ResolvedHit[boxtree.NodeId, Meta], len(hits))
	for i, h := range hits {
		z, _ := tree.ZIndex(h.Node)
		out[i] = responder.ResolvedHit[boxtree.NodeId, Meta]{
			Node:     h.Node,
			DepthKey: responder.Z(z),
		}
	}
	return out
}

// ParentLookup adapts a Tree's ParentOf accessor to responder.ParentLookup,
// so a Router can reconstruct a root→target path for a hit that didn't
// carry one (HitsForRect's hits, in particular).
type ParentLookup[B index.Backend[float64]] struct {
	Tree *boxtree.Tree[B]
}

// ParentOf implements responder.ParentLookup.
func (p ParentLookup[B]) ParentOf(id boxtree.NodeId) (boxtree.NodeId, bool) {
	return p.Tree.ParentOf(id)
}

// NewerComparator is the responder.Router newer-comparator for
// boxtree.NodeId, supplying the generation-then-slot comparison the
// reference router's own id_is_newer left as a permanently-false stub
// (its comment calls for exactly this: "a NodeId-specific comparator in
// the box-tree adapter"). Pass to Router.SetNewerComparator to give the
// Newer/Older tie-break policies real behavior.
func NewerComparator(a, b boxtree.NodeId) bool {
	return a.IsNewer(b)
}

// NodeIDWidgetLookup is a responder.WidgetLookup that maps each node to
// its own NodeId as the widget identifier, useful when a caller has no
// separate widget-id space and wants the dispatched node itself.
type NodeIDWidgetLookup struct{}

// WidgetOf always returns node itself.
func (NodeIDWidgetLookup) WidgetOf(node boxtree.NodeId) (boxtree.NodeId, bool) {
	return node, true
}

// NewRouter builds a responder.Router preconfigured for a box tree: its
// ParentLookup reconstructs paths via the tree, and its newer-comparator
// is NewerComparator, so TieBreakNewer/TieBreakOlder compare generation
// then slot instead of degrading to stable last-wins.
func NewRouter[B index.Backend[float64]](tree *boxtree.Tree[B]) *responder.Router[boxtree.NodeId, boxtree.NodeId, Meta] {
	r := responder.NewRouterWithParent[boxtree.NodeId, boxtree.NodeId, Meta](NodeIDWidgetLookup{}, ParentLookup[B]{Tree: tree})
	r.SetNewerComparator(NewerComparator)
	return r
}
