// Package boxtree layers a scene hierarchy of transformed, clipped,
// z-ordered nodes on top of a spatial index, committing local edits into
// world-space bounds and reporting the resulting damage.
package boxtree

import "github.com/understory-go/spatial/internal/spatial/geom"

// NodeId is a generational handle into a Tree. It stays unambiguous across
// remove/reuse cycles: a reused slot gets a higher generation, so a handle
// to a removed node is never mistaken for the slot's new occupant.
type NodeId struct {
	slot       uint32
	generation uint32
}

// Slot returns the underlying slot index.
func (id NodeId) Slot() uint32 { return id.slot }

// Generation returns the generation counter at the time id was issued.
func (id NodeId) Generation() uint32 { return id.generation }

// IsNewer reports whether id is newer than other: a higher generation
// wins outright; for equal generations (common, since every fresh slot
// starts at generation 1) the higher slot wins.
func (id NodeId) IsNewer(other NodeId) bool {
	if id.generation != other.generation {
		return id.generation > other.generation
	}
	return id.slot > other.slot
}

// NodeFlags is a bitset of per-node visibility/pickability switches.
type NodeFlags uint8

const (
	// FlagVisible marks a node as eligible for rendering and (subject to
	// the query filter) for hit-testing.
	FlagVisible NodeFlags = 1 << 0
	// FlagPickable marks a node as eligible for pointer hit-testing.
	FlagPickable NodeFlags = 1 << 1
)

// DefaultNodeFlags returns the default flag set: visible and pickable.
func DefaultNodeFlags() NodeFlags { return FlagVisible | FlagPickable }

// Has reports whether every bit in mask is set.
func (f NodeFlags) Has(mask NodeFlags) bool { return f&mask == mask }

// LocalNode holds the per-node state a caller controls directly: its
// untransformed bounds, its transform and clip relative to its parent, its
// sibling stacking order, and its flags.
type LocalNode struct {
	LocalBounds    geom.Rect
	LocalTransform geom.Affine
	LocalClip      *geom.RoundedRect
	ZIndex         int32
	Flags          NodeFlags
}

// NewLocalNode builds a LocalNode with an identity transform, no clip, a
// zero z-index, and the default flags.
func NewLocalNode(bounds geom.Rect) LocalNode {
	return LocalNode{
		LocalBounds:    bounds,
		LocalTransform: geom.Identity(),
		Flags:          DefaultNodeFlags(),
	}
}

// QueryFilter narrows hit-testing and intersection queries by flag.
type QueryFilter struct {
	VisibleOnly  bool
	PickableOnly bool
}

// Hit is a single result from HitTestPoint or IntersectRect: the node that
// matched, and (when reconstructible) the path from the root to it.
type Hit struct {
	Node NodeId
	Path []NodeId
}
