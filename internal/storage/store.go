package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/understory-go/spatial/internal/spatial/geom"
)

// ErrNotFound is returned when a workspace, scene, or node row does not exist.
var ErrNotFound = errors.New("not found")

// Store is a pgx-backed persistence layer for the demo service's
// workspace/scene/node domain. It does not know about the box tree or
// index packages: a Scene is responsible for translating between its
// in-memory boxtree.Tree and the plain NodeRow shape persisted here.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an already-connected pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Workspace is a persisted workspace row.
type Workspace struct {
	ID          string
	OwnerUserID string
	Name        string
}

// Scene is a persisted scene row.
type Scene struct {
	ID          string
	WorkspaceID string
	Name        string
}

// User is a persisted account row.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
}

func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, display_name) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, display_name FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, display_name FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// NodeRow is a persisted mirror of one box tree node's LocalNode fields,
// keyed by the scene it belongs to and a string ID minted when the node
// was inserted (a restart rebuilds the box tree from these rows and gets
// fresh NodeIds, while the row IDs stay the same).
type NodeRow struct {
	ID        string
	SceneID   string
	ParentID  *string
	Bounds    geom.Rect
	Transform geom.Affine
	ZIndex    int32
	Flags     uint8
}

func (s *Store) CreateWorkspace(ctx context.Context, w Workspace) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO workspaces (id, owner_user_id, name) VALUES ($1, $2, $3)`,
		w.ID, w.OwnerUserID, w.Name)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	return nil
}

func (s *Store) GetWorkspace(ctx context.Context, id string) (Workspace, error) {
	var w Workspace
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_user_id, name FROM workspaces WHERE id = $1`, id,
	).Scan(&w.ID, &w.OwnerUserID, &w.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Workspace{}, ErrNotFound
	}
	if err != nil {
		return Workspace{}, fmt.Errorf("get workspace: %w", err)
	}
	return w, nil
}

func (s *Store) ListWorkspaces(ctx context.Context, ownerUserID string) ([]Workspace, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_user_id, name FROM workspaces WHERE owner_user_id = $1 ORDER BY id`, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var out []Workspace
	for rows.Next() {
		var w Workspace
		if err := rows.Scan(&w.ID, &w.OwnerUserID, &w.Name); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) CreateScene(ctx context.Context, sc Scene) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scenes (id, workspace_id, name) VALUES ($1, $2, $3)`,
		sc.ID, sc.WorkspaceID, sc.Name)
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}
	return nil
}

func (s *Store) ListScenesByWorkspace(ctx context.Context, workspaceID string) ([]Scene, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, workspace_id, name FROM scenes WHERE workspace_id = $1 ORDER BY id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	var out []Scene
	for rows.Next() {
		var sc Scene
		if err := rows.Scan(&sc.ID, &sc.WorkspaceID, &sc.Name); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// UpsertNode writes or updates a node row. Called whenever a Scene
// inserts a node or changes its bounds, transform, z-index, or flags, so
// the persisted mirror never drifts from the live box tree.
func (s *Store) UpsertNode(ctx context.Context, row NodeRow) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scene_nodes (id, scene_id, parent_id, bounds_x, bounds_y, bounds_w, bounds_h, transform, z_index, flags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			bounds_x = EXCLUDED.bounds_x,
			bounds_y = EXCLUDED.bounds_y,
			bounds_w = EXCLUDED.bounds_w,
			bounds_h = EXCLUDED.bounds_h,
			transform = EXCLUDED.transform,
			z_index = EXCLUDED.z_index,
			flags = EXCLUDED.flags`,
		row.ID, row.SceneID, row.ParentID,
		row.Bounds.X, row.Bounds.Y, row.Bounds.Width, row.Bounds.Height,
		row.Transform[:], row.ZIndex, row.Flags)
	if err != nil {
		return fmt.Errorf("upsert node: %w", err)
	}
	return nil
}

// DeleteNode removes a node row, used when a Scene removes the
// corresponding box tree node.
func (s *Store) DeleteNode(ctx context.Context, sceneID, nodeID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM scene_nodes WHERE scene_id = $1 AND id = $2`, sceneID, nodeID)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	return nil
}

// ListNodes returns every row for a scene, in insertion order, so a
// caller can rebuild the scene's box tree after a restart.
func (s *Store) ListNodes(ctx context.Context, sceneID string) ([]NodeRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, scene_id, parent_id, bounds_x, bounds_y, bounds_w, bounds_h, transform, z_index, flags
		FROM scene_nodes WHERE scene_id = $1 ORDER BY id`, sceneID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var out []NodeRow
	for rows.Next() {
		var row NodeRow
		var transform []float64
		if err := rows.Scan(&row.ID, &row.SceneID, &row.ParentID,
			&row.Bounds.X, &row.Bounds.Y, &row.Bounds.Width, &row.Bounds.Height,
			&transform, &row.ZIndex, &row.Flags); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		copy(row.Transform[:], transform)
		out = append(out, row)
	}
	return out, rows.Err()
}
