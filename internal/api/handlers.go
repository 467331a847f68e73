package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/andythehood/datatransformer-playground/internal/bundle"
	"github.com/andythehood/datatransformer-playground/internal/execution"
	"github.com/andythehood/datatransformer-playground/internal/playground"
	"github.com/andythehood/datatransformer-playground/internal/ratelimit"
	"github.com/andythehood/datatransformer-playground/internal/tree"
	"github.com/andythehood/datatransformer-playground/internal/variables"
	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

// maxBundleBytes caps the size of an uploaded bundle
const maxBundleBytes = 32 * 1024 * 1024

// Handler holds dependencies for playground HTTP handlers
type Handler struct {
	store   *playground.Store
	index   *tree.Index
	exec    *execution.Client
	limiter *ratelimit.Limiter
}

// NewHandler creates a new HTTP handler
func NewHandler(store *playground.Store, index *tree.Index, exec *execution.Client) *Handler {
	return &Handler{
		store: store,
		index: index,
		exec:  exec,
	}
}

// statusFor maps store errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrNameEmpty),
		errors.Is(err, workspace.ErrInvalidName),
		errors.Is(err, workspace.ErrInvalidBundleType),
		errors.Is(err, workspace.ErrInvalidBundle),
		errors.Is(err, workspace.ErrInvalidVariable):
		return http.StatusBadRequest
	case errors.Is(err, workspace.ErrNameConflict):
		return http.StatusConflict
	case errors.Is(err, workspace.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, execution.ErrBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, execution.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ %v", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// ListPlaygrounds handles GET /v1/playgrounds
func (h *Handler) ListPlaygrounds(w http.ResponseWriter, r *http.Request) {
	playgrounds, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playgrounds)
}

// CreatePlayground handles POST /v1/playgrounds
func (h *Handler) CreatePlayground(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	p, err := h.store.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetPlayground handles GET /v1/playgrounds/{name}
func (h *Handler) GetPlayground(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlayground handles DELETE /v1/playgrounds/{name}
func (h *Handler) DeletePlayground(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.store.Delete(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	if h.limiter != nil {
		h.limiter.Forget(name)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportPlayground handles GET /v1/playgrounds/{name}/export
func (h *Handler) ExportPlayground(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.Export(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := bundle.Encode(b)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", b.FileName))
	w.Write(data)
}

// ImportPlayground handles POST /v1/playgrounds/import?overwrite=true
func (h *Handler) ImportPlayground(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBundleBytes))
	if err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	overwrite, _ := strconv.ParseBool(r.URL.Query().Get("overwrite"))

	p, err := h.store.Import(r.Context(), data, overwrite)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetSchema handles GET /v1/schema
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	data, err := bundle.GenerateJSONSchema()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(data)
}

// ListScripts handles GET /v1/playgrounds/{name}/scripts and its snapshot variant
func (h *Handler) ListScripts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	list, err := h.store.Scripts(r.Context(), vars["name"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AddScript handles POST /v1/playgrounds/{name}/scripts
func (h *Handler) AddScript(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	script, err := h.store.AddScript(r.Context(), vars["name"], vars["id"], req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, script)
}

// GetScript handles GET /v1/playgrounds/{name}/scripts/{script} and its snapshot variant
func (h *Handler) GetScript(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	script, err := h.store.Script(r.Context(), vars["name"], vars["id"], vars["script"])
	if err != nil {
		writeError(w, err)
		return
	}

	content, err := h.store.ReadScript(r.Context(), vars["name"], vars["id"], vars["script"])
	if err != nil {
		writeError(w, err)
		return
	}

	resp := models.BundleScript{Name: script.Name, Snippet: content}
	if script.TestCase != nil {
		expected, err := h.store.ReadTestCase(r.Context(), vars["name"], vars["id"], vars["script"])
		if err == nil {
			resp.TestCase = &expected
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// WriteScript handles PUT /v1/playgrounds/{name}/scripts/{script}
func (h *Handler) WriteScript(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Snippet string `json:"snippet"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := h.store.WriteScript(r.Context(), vars["name"], vars["id"], vars["script"], req.Snippet); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteScript handles DELETE /v1/playgrounds/{name}/scripts/{script}
func (h *Handler) DeleteScript(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteScript(r.Context(), vars["name"], vars["id"], vars["script"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTestCase handles POST /v1/playgrounds/{name}/scripts/{script}/testcase
func (h *Handler) AddTestCase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	testCase, err := h.store.AddTestCase(r.Context(), vars["name"], vars["id"], vars["script"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, testCase)
}

// GetTestCase handles GET /v1/playgrounds/{name}/scripts/{script}/testcase
func (h *Handler) GetTestCase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	content, err := h.store.ReadTestCase(r.Context(), vars["name"], vars["id"], vars["script"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, content)
}

// DeleteTestCase handles DELETE /v1/playgrounds/{name}/scripts/{script}/testcase
func (h *Handler) DeleteTestCase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteTestCase(r.Context(), vars["name"], vars["id"], vars["script"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVariables handles GET /v1/playgrounds/{name}/extvars and its snapshot variant
func (h *Handler) GetVariables(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	list, err := h.store.Variables(r.Context(), vars["name"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// SaveVariables handles PUT /v1/playgrounds/{name}/extvars
func (h *Handler) SaveVariables(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var list variables.Variables
	if !decode(w, r, &list) {
		return
	}

	if err := h.store.SaveVariables(r.Context(), vars["name"], vars["id"], list); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Run handles POST /v1/playgrounds/{name}/run
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var req models.RunRequest
	if !decode(w, r, &req) {
		return
	}

	loc, err := h.store.Locate(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	if loc.Playground != mux.Vars(r)["name"] {
		http.Error(w, "Document does not belong to this playground", http.StatusBadRequest)
		return
	}

	result, err := h.store.Run(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Format handles POST /v1/format
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	var req models.FormatRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.exec.Format(r.Context(), req.Snippet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTree handles GET /v1/tree
func (h *Handler) GetTree(w http.ResponseWriter, r *http.Request) {
	if err := h.index.Sync(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.index.Playgrounds())
}

// Resolve handles GET /v1/resolve?path=
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	entity, err := h.index.Entity(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"kind":   entity.Kind(),
		"entity": entity,
	})
}

// Select handles POST /v1/select
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Playground string `json:"playground"`
		SnapshotID string `json:"snapshotId"`
		Path       string `json:"path"`
	}
	if !decode(w, r, &req) {
		return
	}

	var entity models.Entity
	var err error
	switch {
	case req.Path != "":
		entity, err = h.index.Entity(r.Context(), req.Path)
	case req.Playground != "":
		entity, err = h.store.Resolve(r.Context(), req.Playground, req.SnapshotID)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	selection, err := h.index.OnSelect(r.Context(), entity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selection)
}

// GetSelection handles GET /v1/selection
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	selection, err := h.index.Active(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if selection == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, selection)
}

// GetActiveDocument handles GET /v1/selection/document?path=
func (h *Handler) GetActiveDocument(w http.ResponseWriter, r *http.Request) {
	entity := h.index.ActiveDocument(r.URL.Query().Get("path"))
	if entity == nil {
		http.Error(w, "No scripts selected", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"kind":   entity.Kind(),
		"entity": entity,
	})
}
