// Package scene ties a single scene's box tree, hit-test router, and
// hover tracker together with write-through persistence, so a workspace
// handler has one object to call for inserts, pointer moves, and commits.
package scene

import (
	"context"
	"fmt"

	"github.com/understory-go/spatial/internal/spatial/aabb"
	"github.com/understory-go/spatial/internal/spatial/boxtree"
	"github.com/understory-go/spatial/internal/spatial/geom"
	"github.com/understory-go/spatial/internal/spatial/index/backends"
	"github.com/understory-go/spatial/internal/spatial/responder"
	"github.com/understory-go/spatial/internal/spatial/responder/boxtreeadapter"
	"github.com/understory-go/spatial/internal/spatial/hover"
	"github.com/understory-go/spatial/internal/storage"
	"github.com/understory-go/spatial/internal/typeid"
)

// Backend is the spatial index every Scene's box tree runs on. An R-tree
// suits the scene demo's workload (many small, frequently-reparented
// rectangles) better than the grid (unbounded extents) or the BVH
// (optimized for mostly-static geometry); RTreeLeafCapacity from
// config.Config sizes its leaves.
type Backend = *backends.RTree[float64]

// NodeStore is the persistence a Scene writes through to. *storage.Store
// satisfies it; tests supply an in-memory fake instead of a real pool.
type NodeStore interface {
	UpsertNode(ctx context.Context, row storage.NodeRow) error
	DeleteNode(ctx context.Context, sceneID, nodeID string) error
}

// Scene owns one box tree, its preconfigured hit-test router and hover
// tracker, and write-through persistence for every mutation.
type Scene struct {
	ID    string
	store NodeStore

	tree   *boxtree.Tree[Backend]
	router *responder.Router[boxtree.NodeId, boxtree.NodeId, boxtreeadapter.Meta]
	hover  *hover.State[boxtree.NodeId]

	// persisted maps a NodeId to the row ID it was written under, since
	// storage.NodeRow is keyed by a stable string, not a process-local
	// generational handle.
	persisted map[boxtree.NodeId]string

	// local mirrors each live node's LocalNode, since Tree exposes no
	// getter for it (only the composed world state); rewriteRow needs the
	// untransformed fields to persist a row that LoadRow can reconstruct.
	local map[boxtree.NodeId]boxtree.LocalNode
}

// New builds a Scene backed by a fresh R-tree sized to leafCapacity.
func New(id string, store NodeStore, leafCapacity int) *Scene {
	if leafCapacity < 1 {
		leafCapacity = 8
	}
	tree := boxtree.New[Backend](backends.NewRTree[float64](aabb.Float64Scalar{}, leafCapacity/2, leafCapacity))
	return &Scene{
		ID:        id,
		store:     store,
		tree:      tree,
		router:    boxtreeadapter.NewRouter[Backend](tree),
		hover:     hover.New[boxtree.NodeId](),
		persisted: make(map[boxtree.NodeId]string),
		local:     make(map[boxtree.NodeId]boxtree.LocalNode),
	}
}

// Insert adds a node under parent (nil for a root) and writes it through
// to storage under a freshly minted node ID.
func (s *Scene) Insert(ctx context.Context, parent *boxtree.NodeId, local boxtree.LocalNode) (boxtree.NodeId, error) {
	id := s.tree.Insert(parent, local)

	rowID := typeid.NewSnapshotID()
	s.persisted[id] = rowID
	s.local[id] = local

	var parentRowID *string
	if parent != nil {
		if pr, ok := s.persisted[*parent]; ok {
			parentRowID = &pr
		}
	}
	row := storage.NodeRow{
		ID:        rowID,
		SceneID:   s.ID,
		ParentID:  parentRowID,
		Bounds:    local.LocalBounds,
		Transform: local.LocalTransform,
		ZIndex:    local.ZIndex,
		Flags:     uint8(local.Flags),
	}
	if err := s.store.UpsertNode(ctx, row); err != nil {
		return id, fmt.Errorf("insert node: %w", err)
	}
	return id, nil
}

// LoadRow inserts a previously persisted row into the box tree without
// writing it back to storage, used by workspace.Service to rebuild a
// scene from storage after a restart. parent must be a NodeId this Scene
// already returned from LoadRow or Insert (or nil for a root row).
func (s *Scene) LoadRow(row storage.NodeRow, parent *boxtree.NodeId) boxtree.NodeId {
	local := boxtree.NewLocalNode(row.Bounds)
	local.LocalTransform = row.Transform
	local.ZIndex = row.ZIndex
	local.Flags = boxtree.NodeFlags(row.Flags)

	id := s.tree.Insert(parent, local)
	s.persisted[id] = row.ID
	s.local[id] = local
	return id
}

// Remove deletes id's subtree from the box tree and the rows of id and
// every descendant from storage.
func (s *Scene) Remove(ctx context.Context, id boxtree.NodeId) error {
	for nid, rid := range s.persisted {
		for cur, ok := s.tree.ParentOf(nid); ok; cur, ok = s.tree.ParentOf(cur) {
			if cur == id {
				delete(s.persisted, nid)
				delete(s.local, nid)
				if err := s.store.DeleteNode(ctx, s.ID, rid); err != nil {
					return fmt.Errorf("remove node: %w", err)
				}
				break
			}
		}
	}
	rowID, ok := s.persisted[id]
	s.tree.Remove(id)
	delete(s.persisted, id)
	delete(s.local, id)
	if !ok {
		return nil
	}
	if err := s.store.DeleteNode(ctx, s.ID, rowID); err != nil {
		return fmt.Errorf("remove node: %w", err)
	}
	return nil
}

// SetZIndex updates id's stacking order in both the box tree and its
// persisted row.
func (s *Scene) SetZIndex(ctx context.Context, id boxtree.NodeId, z int32) error {
	s.tree.SetZIndex(id, z)
	local := s.local[id]
	local.ZIndex = z
	s.local[id] = local
	return s.rewriteRow(ctx, id, local)
}

// SetLocalTransform updates id's transform in both the box tree and its
// persisted row.
func (s *Scene) SetLocalTransform(ctx context.Context, id boxtree.NodeId, tf geom.Affine) error {
	s.tree.SetLocalTransform(id, tf)
	local := s.local[id]
	local.LocalTransform = tf
	s.local[id] = local
	return s.rewriteRow(ctx, id, local)
}

func (s *Scene) rewriteRow(ctx context.Context, id boxtree.NodeId, local boxtree.LocalNode) error {
	rowID, ok := s.persisted[id]
	if !ok {
		return nil
	}
	row := storage.NodeRow{
		ID:        rowID,
		SceneID:   s.ID,
		Bounds:    local.LocalBounds,
		Transform: local.LocalTransform,
		ZIndex:    local.ZIndex,
		Flags:     uint8(local.Flags),
	}
	if parent, ok := s.tree.ParentOf(id); ok {
		if pr, ok := s.persisted[parent]; ok {
			row.ParentID = &pr
		}
	}
	if err := s.store.UpsertNode(ctx, row); err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	return nil
}

// Commit recomputes world-space state and drives the spatial index.
func (s *Scene) Commit() boxtree.Damage {
	return s.tree.Commit()
}

// HitTest dispatches a capture/target/bubble sequence for the topmost
// node under (x, y), or nil if nothing was hit.
func (s *Scene) HitTest(x, y float64, filter boxtree.QueryFilter) []responder.Dispatch[boxtree.NodeId, boxtree.NodeId, boxtreeadapter.Meta] {
	hit, ok := boxtreeadapter.TopHitForPoint[Backend](s.tree, x, y, filter)
	if !ok {
		return nil
	}
	return s.router.HandleWithHits([]responder.ResolvedHit[boxtree.NodeId, boxtreeadapter.Meta]{hit})
}

// PointerMove re-dispatches a hit test for (x, y) and returns the hover
// enter/leave events produced by moving from the previous path to the
// resulting one.
func (s *Scene) PointerMove(x, y float64, filter boxtree.QueryFilter) []hover.Event[boxtree.NodeId] {
	seq := s.HitTest(x, y, filter)
	path := hover.PathFromDispatch(seq)
	return s.hover.UpdatePath(path)
}

// PointerExit clears the hover state entirely, as when the pointer leaves
// the scene's surface.
func (s *Scene) PointerExit() []hover.Event[boxtree.NodeId] {
	return s.hover.Clear()
}
