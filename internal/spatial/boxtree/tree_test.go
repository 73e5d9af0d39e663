package boxtree

import (
	"testing"

	"github.com/understory-go/spatial/internal/spatial/geom"
	"github.com/understory-go/spatial/internal/spatial/index/backends"
)

func newTestTree() *Tree[*backends.FlatVec[float64]] {
	return New[*backends.FlatVec[float64]](backends.NewFlatVec[float64]())
}

func TestTreeInsertAndHitTest(t *testing.T) {
	tr := newTestTree()
	a := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	tr.Commit()

	hit, ok := tr.HitTestPoint(50, 50, QueryFilter{})
	if !ok || hit.Node != a {
		t.Fatalf("HitTestPoint(50,50) = %v,%v, want %v,true", hit, ok, a)
	}
	if _, ok := tr.HitTestPoint(500, 500, QueryFilter{}); ok {
		t.Fatalf("HitTestPoint outside bounds should miss")
	}
}

func TestTreeZIndexOrdering(t *testing.T) {
	tr := newTestTree()
	back := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	front := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	tr.SetZIndex(back, 0)
	tr.SetZIndex(front, 1)
	tr.Commit()

	hit, ok := tr.HitTestPoint(50, 50, QueryFilter{})
	if !ok || hit.Node != front {
		t.Fatalf("expected higher z-index node %v on top, got %v", front, hit.Node)
	}
}

func TestTreeAncestorZTupleBeatsSiblingZ(t *testing.T) {
	tr := newTestTree()
	// Group A has a high own z but a low ancestor z; group B's ancestor
	// has a higher z, so every descendant of B should outrank every
	// descendant of A regardless of the descendants' own z-index.
	groupA := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	groupB := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	tr.SetZIndex(groupA, 0)
	tr.SetZIndex(groupB, 1)

	childA := tr.Insert(&groupA, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	childB := tr.Insert(&groupB, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	tr.SetZIndex(childA, 100)
	tr.SetZIndex(childB, 0)
	tr.Commit()

	hit, ok := tr.HitTestPoint(50, 50, QueryFilter{})
	if !ok || hit.Node != childB {
		t.Fatalf("ancestor z-tuple should dominate sibling z: want %v, got %v (ok=%v)", childB, hit.Node, ok)
	}
}

func TestTreeTransformAndDamage(t *testing.T) {
	tr := newTestTree()
	a := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 10, 10)))
	dmg := tr.Commit()
	if len(dmg.Added) != 1 {
		t.Fatalf("first commit should add one box, got %v", dmg)
	}

	tr.SetLocalTransform(a, geom.Translate(100, 100))
	dmg = tr.Commit()
	if len(dmg.Moved) != 1 {
		t.Fatalf("transform change should move one box, got %v", dmg)
	}
	wb, _ := tr.WorldBounds(a)
	if wb.X != 100 || wb.Y != 100 {
		t.Fatalf("world bounds after translate = %v, want origin (100,100)", wb)
	}
}

func TestTreeRotatedBoundsExpandToAABB(t *testing.T) {
	tr := newTestTree()
	a := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(-5, -5, 10, 10)))
	tr.SetLocalTransform(a, geom.Rotate(0.7853981633974483))
	tr.Commit()

	wb, _ := tr.WorldBounds(a)
	want := 10 * 1.4142135623730951
	if d := wb.Width - want; d > 1e-6 || d < -1e-6 {
		t.Fatalf("rotated bounds width = %v, want %v", wb.Width, want)
	}
}

func TestTreeRemoveFreesSlotAndDamage(t *testing.T) {
	tr := newTestTree()
	a := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 10, 10)))
	tr.Commit()

	tr.Remove(a)
	dmg := tr.Commit()
	if len(dmg.Removed) != 1 {
		t.Fatalf("remove should produce one removed box, got %v", dmg)
	}
	if tr.IsAlive(a) {
		t.Fatalf("node should not be alive after remove")
	}
	if _, ok := tr.HitTestPoint(5, 5, QueryFilter{}); ok {
		t.Fatalf("removed node should not hit-test")
	}
}

func TestTreeSlotReuseBumpsGeneration(t *testing.T) {
	tr := newTestTree()
	a := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 10, 10)))
	tr.Commit()
	tr.Remove(a)
	tr.Commit()

	b := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 10, 10)))
	tr.Commit()

	if b.Slot() == a.Slot() && b.Generation() <= a.Generation() {
		t.Fatalf("reused slot should carry a strictly higher generation: a=%v b=%v", a, b)
	}
	if tr.IsAlive(a) {
		t.Fatalf("stale handle a should not report alive after its slot is reused")
	}
	if !tr.IsAlive(b) {
		t.Fatalf("fresh handle b should report alive")
	}
}

func TestTreeHiddenAncestorHidesDescendant(t *testing.T) {
	tr := newTestTree()
	parent := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	child := tr.Insert(&parent, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	tr.SetFlags(parent, 0) // not visible, not pickable
	tr.Commit()

	if _, ok := tr.HitTestPoint(50, 50, QueryFilter{VisibleOnly: true}); ok {
		t.Fatalf("child of hidden ancestor should not hit-test even though child itself is visible")
	}
	_ = child
}

func TestTreeZIndexAccessorRespectsLiveness(t *testing.T) {
	tr := newTestTree()
	a := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 10, 10)))
	tr.SetZIndex(a, 7)
	tr.Commit()
	if z, ok := tr.ZIndex(a); !ok || z != 7 {
		t.Fatalf("ZIndex(a) = %v,%v, want 7,true", z, ok)
	}

	tr.Remove(a)
	tr.Commit()
	if _, ok := tr.ZIndex(a); ok {
		t.Fatalf("ZIndex of removed node should report not-ok")
	}
}

func TestTreeIntersectRectPainterOrder(t *testing.T) {
	tr := newTestTree()
	back := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	mid := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	front := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	tr.SetZIndex(back, 0)
	tr.SetZIndex(mid, 1)
	tr.SetZIndex(front, 2)
	tr.Commit()

	hits := tr.IntersectRect(geom.RectFromXYWH(0, 0, 100, 100), QueryFilter{})
	if len(hits) != 3 {
		t.Fatalf("IntersectRect = %d hits, want 3", len(hits))
	}
	if hits[0].Node != back || hits[1].Node != mid || hits[2].Node != front {
		t.Fatalf("IntersectRect order = %v, want back < mid < front", hits)
	}
}

func TestTreeReparentMarksSubtreeDirty(t *testing.T) {
	tr := newTestTree()
	groupA := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(0, 0, 10, 10)))
	groupB := tr.Insert(nil, NewLocalNode(geom.RectFromXYWH(1000, 1000, 10, 10)))
	tr.SetLocalTransform(groupB, geom.Translate(1000, 1000))
	child := tr.Insert(&groupA, NewLocalNode(geom.RectFromXYWH(0, 0, 5, 5)))
	tr.Commit()

	if wb, _ := tr.WorldBounds(child); wb.X != 0 {
		t.Fatalf("child world bounds before reparent = %v, want near origin", wb)
	}

	tr.Reparent(child, &groupB)
	tr.Commit()

	wb, _ := tr.WorldBounds(child)
	if wb.X < 999 {
		t.Fatalf("child world bounds after reparent under translated group = %v, want shifted by (1000,1000)", wb)
	}
	parent, ok := tr.ParentOf(child)
	if !ok || parent != groupB {
		t.Fatalf("ParentOf(child) after reparent = %v,%v, want %v,true", parent, ok, groupB)
	}
}
