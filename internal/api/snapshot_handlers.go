package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/andythehood/datatransformer-playground/internal/playground"
	"github.com/andythehood/datatransformer-playground/internal/workspace"
)

// SnapshotHandler holds dependencies for snapshot HTTP handlers
type SnapshotHandler struct {
	store *playground.Store
}

// NewSnapshotHandler creates a new snapshot HTTP handler
func NewSnapshotHandler(store *playground.Store) *SnapshotHandler {
	return &SnapshotHandler{
		store: store,
	}
}

type labelRequest struct {
	Label string `json:"label"`
}

// ListSnapshots handles GET /v1/playgrounds/{name}/snapshots
func (h *SnapshotHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.store.Snapshots(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// TakeSnapshot handles POST /v1/playgrounds/{name}/snapshots.
// A snapshot whose copy failed is still returned, flagged by X-Snapshot-Warning.
func (h *SnapshotHandler) TakeSnapshot(w http.ResponseWriter, r *http.Request) {
	var req labelRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	snap, err := h.store.TakeSnapshot(r.Context(), mux.Vars(r)["name"], req.Label)
	if err != nil {
		if snap == nil || !errors.Is(err, workspace.ErrSnapshotIncomplete) {
			writeError(w, err)
			return
		}
		w.Header().Set("X-Snapshot-Warning", err.Error())
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetSnapshot handles GET /v1/playgrounds/{name}/snapshots/{id}
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	entity, err := h.store.Resolve(r.Context(), vars["name"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

// RenameSnapshot handles PATCH /v1/playgrounds/{name}/snapshots/{id}
func (h *SnapshotHandler) RenameSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req labelRequest
	if !decode(w, r, &req) {
		return
	}

	snap, err := h.store.RenameSnapshot(r.Context(), vars["name"], vars["id"], req.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteSnapshot handles DELETE /v1/playgrounds/{name}/snapshots/{id}
func (h *SnapshotHandler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.store.DeleteSnapshot(r.Context(), vars["name"], vars["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
