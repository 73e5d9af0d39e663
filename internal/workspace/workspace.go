// Package workspace manages workspaces and the scenes inside them: it is
// the top-level object cmd/server wires HTTP routes against.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/understory-go/spatial/internal/scene"
	"github.com/understory-go/spatial/internal/spatial/boxtree"
	"github.com/understory-go/spatial/internal/storage"
	"github.com/understory-go/spatial/internal/typeid"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Service owns every workspace's durable rows and the live, in-memory
// scene.Scene for each of its scenes. A scene's box tree only exists in
// memory; Service rebuilds it from storage on first access after a
// restart.
type Service struct {
	store        *storage.Store
	leafCapacity int

	mu     sync.Mutex
	scenes map[string]*scene.Scene // sceneID -> live scene
}

func New(store *storage.Store, rtreeLeafCapacity int) *Service {
	return &Service{
		store:        store,
		leafCapacity: rtreeLeafCapacity,
		scenes:       make(map[string]*scene.Scene),
	}
}

func (s *Service) CreateWorkspace(ctx context.Context, ownerUserID, name string) (storage.Workspace, error) {
	ws := storage.Workspace{
		ID:          typeid.NewWorkspaceID(),
		OwnerUserID: ownerUserID,
		Name:        name,
	}
	if err := s.store.CreateWorkspace(ctx, ws); err != nil {
		return storage.Workspace{}, fmt.Errorf("create workspace: %w", err)
	}
	return ws, nil
}

func (s *Service) GetWorkspace(ctx context.Context, id string) (storage.Workspace, error) {
	ws, err := s.store.GetWorkspace(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Workspace{}, ErrNotFound
	}
	return ws, err
}

func (s *Service) ListWorkspaces(ctx context.Context, ownerUserID string) ([]storage.Workspace, error) {
	return s.store.ListWorkspaces(ctx, ownerUserID)
}

func (s *Service) CreateScene(ctx context.Context, workspaceID, name string) (storage.Scene, error) {
	if _, err := s.GetWorkspace(ctx, workspaceID); err != nil {
		return storage.Scene{}, err
	}
	sc := storage.Scene{
		ID:          typeid.NewSceneID(),
		WorkspaceID: workspaceID,
		Name:        name,
	}
	if err := s.store.CreateScene(ctx, sc); err != nil {
		return storage.Scene{}, fmt.Errorf("create scene: %w", err)
	}
	return sc, nil
}

func (s *Service) ListScenes(ctx context.Context, workspaceID string) ([]storage.Scene, error) {
	return s.store.ListScenesByWorkspace(ctx, workspaceID)
}

// OpenScene returns the live scene.Scene for sceneID, creating and
// populating it from storage on first access.
func (s *Service) OpenScene(ctx context.Context, sceneID string) (*scene.Scene, error) {
	s.mu.Lock()
	if sc, ok := s.scenes[sceneID]; ok {
		s.mu.Unlock()
		return sc, nil
	}
	s.mu.Unlock()

	sc := scene.New(sceneID, s.store, s.leafCapacity)
	rows, err := s.store.ListNodes(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("load scene nodes: %w", err)
	}
	rebuildScene(sc, rows)
	sc.Commit()

	s.mu.Lock()
	if existing, ok := s.scenes[sceneID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.scenes[sceneID] = sc
	s.mu.Unlock()
	return sc, nil
}

// rebuildScene replays rows into sc in parent-before-child order. rows are
// already sorted by ID, and a node's typeid is always minted after its
// parent's, so a single forward pass resolves every ParentID before it is
// needed; any row whose parent hasn't resolved yet (a dangling reference
// left by a crash mid-write) is loaded as a root instead of dropped.
func rebuildScene(sc *scene.Scene, rows []storage.NodeRow) {
	resolved := make(map[string]boxtree.NodeId, len(rows))
	for _, row := range rows {
		var parent *boxtree.NodeId
		if row.ParentID != nil {
			if id, ok := resolved[*row.ParentID]; ok {
				parent = &id
			}
		}
		resolved[row.ID] = sc.LoadRow(row, parent)
	}
}
