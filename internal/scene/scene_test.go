package scene

import (
	"context"
	"testing"

	"github.com/understory-go/spatial/internal/spatial/boxtree"
	"github.com/understory-go/spatial/internal/spatial/geom"
	"github.com/understory-go/spatial/internal/storage"
)

type fakeStore struct {
	rows map[string]storage.NodeRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]storage.NodeRow)}
}

func (f *fakeStore) UpsertNode(ctx context.Context, row storage.NodeRow) error {
	f.rows[row.ID] = row
	return nil
}

func (f *fakeStore) DeleteNode(ctx context.Context, sceneID, nodeID string) error {
	delete(f.rows, nodeID)
	return nil
}

func TestSceneInsertWritesThroughToStore(t *testing.T) {
	store := newFakeStore()
	sc := New("scene_1", store, 4)

	id, err := sc.Insert(context.Background(), nil, boxtree.NewLocalNode(geom.RectFromXYWH(0, 0, 10, 10)))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	sc.Commit()

	if len(store.rows) != 1 {
		t.Fatalf("len(store.rows) = %d, want 1", len(store.rows))
	}
	rowID := sc.persisted[id]
	row, ok := store.rows[rowID]
	if !ok {
		t.Fatalf("expected row %q in store", rowID)
	}
	if row.SceneID != "scene_1" {
		t.Fatalf("row.SceneID = %q, want scene_1", row.SceneID)
	}
}

func TestSceneRemoveDeletesFromStore(t *testing.T) {
	store := newFakeStore()
	sc := New("scene_1", store, 4)

	id, _ := sc.Insert(context.Background(), nil, boxtree.NewLocalNode(geom.RectFromXYWH(0, 0, 10, 10)))
	sc.Commit()

	if err := sc.Remove(context.Background(), id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatalf("expected store empty after remove, got %d rows", len(store.rows))
	}
}

func TestSceneHitTestResolvesTopmostNode(t *testing.T) {
	store := newFakeStore()
	sc := New("scene_1", store, 4)
	ctx := context.Background()

	back, _ := sc.Insert(ctx, nil, boxtree.NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	front, _ := sc.Insert(ctx, nil, boxtree.NewLocalNode(geom.RectFromXYWH(0, 0, 100, 100)))
	sc.SetZIndex(ctx, back, 0)
	sc.SetZIndex(ctx, front, 1)
	sc.Commit()

	dispatch := sc.HitTest(50, 50, boxtree.QueryFilter{})
	if len(dispatch) == 0 {
		t.Fatal("expected a dispatch sequence")
	}
	last := dispatch[len(dispatch)-1]
	if last.Node != front {
		t.Fatalf("target node = %v, want %v", last.Node, front)
	}
}

func TestScenePointerMoveEmitsHoverEvents(t *testing.T) {
	store := newFakeStore()
	sc := New("scene_1", store, 4)
	ctx := context.Background()

	a, _ := sc.Insert(ctx, nil, boxtree.NewLocalNode(geom.RectFromXYWH(0, 0, 50, 50)))
	b, _ := sc.Insert(ctx, nil, boxtree.NewLocalNode(geom.RectFromXYWH(100, 100, 50, 50)))
	sc.Commit()

	events := sc.PointerMove(25, 25, boxtree.QueryFilter{})
	if len(events) != 1 || events[0].Node != a || !events[0].Entering {
		t.Fatalf("first move events = %v, want single enter on %v", events, a)
	}

	events = sc.PointerMove(125, 125, boxtree.QueryFilter{})
	if len(events) != 2 {
		t.Fatalf("branch-change events = %v, want leave(a)+enter(b)", events)
	}
	if events[0].Node != a || events[0].Entering {
		t.Fatalf("first event = %v, want leave(%v)", events[0], a)
	}
	if events[1].Node != b || !events[1].Entering {
		t.Fatalf("second event = %v, want enter(%v)", events[1], b)
	}

	events = sc.PointerExit()
	if len(events) != 1 || events[0].Node != b || events[0].Entering {
		t.Fatalf("exit events = %v, want leave(%v)", events, b)
	}
}

func TestSceneSetLocalTransformPersists(t *testing.T) {
	store := newFakeStore()
	sc := New("scene_1", store, 4)
	ctx := context.Background()

	id, _ := sc.Insert(ctx, nil, boxtree.NewLocalNode(geom.RectFromXYWH(0, 0, 10, 10)))
	sc.Commit()

	tf := geom.Translate(5, 5)
	if err := sc.SetLocalTransform(ctx, id, tf); err != nil {
		t.Fatalf("SetLocalTransform: %v", err)
	}

	rowID := sc.persisted[id]
	if store.rows[rowID].Transform != tf {
		t.Fatalf("persisted transform = %v, want %v", store.rows[rowID].Transform, tf)
	}
}
