package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/andythehood/datatransformer-playground/internal/editor"
	"github.com/andythehood/datatransformer-playground/internal/library"
)

// LibraryHandler holds dependencies for library and editor HTTP handlers
type LibraryHandler struct {
	libraries *library.Store
	editors   *editor.Registry
}

// NewLibraryHandler creates a new library HTTP handler
func NewLibraryHandler(libraries *library.Store, editors *editor.Registry) *LibraryHandler {
	return &LibraryHandler{
		libraries: libraries,
		editors:   editors,
	}
}

// ListLibraries handles GET /v1/libraries
func (h *LibraryHandler) ListLibraries(w http.ResponseWriter, r *http.Request) {
	libs, err := h.libraries.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, libs)
}

// AddLibrary handles POST /v1/libraries
func (h *LibraryHandler) AddLibrary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	lib, err := h.libraries.Add(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lib)
}

// ImportLibrary handles PUT /v1/libraries/{name} with the raw library as body
func (h *LibraryHandler) ImportLibrary(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBundleBytes))
	if err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	lib, err := h.libraries.Import(r.Context(), mux.Vars(r)["name"], string(data))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

// GetLibrary handles GET /v1/libraries/{name}
func (h *LibraryHandler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	content, err := h.libraries.Read(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, content)
}

// DeleteLibrary handles DELETE /v1/libraries/{name}
func (h *LibraryHandler) DeleteLibrary(w http.ResponseWriter, r *http.Request) {
	if err := h.libraries.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetImportStatement handles GET /v1/libraries/{name}/import
func (h *LibraryHandler) GetImportStatement(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"statement": library.ImportStatement(mux.Vars(r)["name"]),
	})
}

// ListEditors handles GET /v1/editors
func (h *LibraryHandler) ListEditors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.editors.List())
}

// OpenEditor handles POST /v1/editors
func (h *LibraryHandler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decode(w, r, &req) {
		return
	}

	doc, err := h.editors.Open(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// CloseEditor handles DELETE /v1/editors?path=
func (h *LibraryHandler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	if err := h.editors.CloseIfOpen(r.Context(), r.URL.Query().Get("path")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
