package workspace

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/understory-go/spatial/internal/auth"
	"github.com/understory-go/spatial/internal/spatial/boxtree"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

type createSceneRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	ws, err := h.service.CreateWorkspace(r.Context(), userID, req.Name)
	if err != nil {
		slog.Error("create workspace failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

func (h *Handler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	list, err := h.service.ListWorkspaces(r.Context(), userID)
	if err != nil {
		slog.Error("list workspaces failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := mux.Vars(r)["workspaceID"]

	ws, err := h.service.GetWorkspace(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if ws.OwnerUserID != userID {
		handleServiceError(w, ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *Handler) CreateScene(w http.ResponseWriter, r *http.Request) {
	workspaceID := mux.Vars(r)["workspaceID"]

	var req createSceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	sc, err := h.service.CreateScene(r.Context(), workspaceID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (h *Handler) ListScenes(w http.ResponseWriter, r *http.Request) {
	workspaceID := mux.Vars(r)["workspaceID"]

	list, err := h.service.ListScenes(r.Context(), workspaceID)
	if err != nil {
		slog.Error("list scenes failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type hitTestRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (h *Handler) HitTest(w http.ResponseWriter, r *http.Request) {
	sceneID := mux.Vars(r)["sceneID"]

	var req hitTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sc, err := h.service.OpenScene(r.Context(), sceneID)
	if err != nil {
		slog.Error("open scene failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	dispatch := sc.HitTest(req.X, req.Y, boxtree.QueryFilter{VisibleOnly: true, PickableOnly: true})
	writeJSON(w, http.StatusOK, dispatch)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
