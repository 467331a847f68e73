package api

import (
	"github.com/gorilla/mux"

	"github.com/andythehood/datatransformer-playground/internal/events"
	"github.com/andythehood/datatransformer-playground/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes(snapshotHandler *SnapshotHandler, libraryHandler *LibraryHandler, eventServer *events.Server, rateLimiter *ratelimit.Limiter) *mux.Router {
	r := mux.NewRouter()
	h.limiter = rateLimiter

	// API v1 routes
	api := r.PathPrefix("/v1").Subrouter()

	// Execution endpoints (rate limited per playground)
	rateLimitedAPI := api.PathPrefix("").Subrouter()
	rateLimitedAPI.Use(RateLimitMiddleware(rateLimiter))
	rateLimitedAPI.HandleFunc("/playgrounds/{name}/run", h.Run).Methods("POST")
	rateLimitedAPI.HandleFunc("/format", h.Format).Methods("POST")

	// Playground endpoints
	api.HandleFunc("/playgrounds", h.ListPlaygrounds).Methods("GET")
	api.HandleFunc("/playgrounds", h.CreatePlayground).Methods("POST")
	api.HandleFunc("/playgrounds/import", h.ImportPlayground).Methods("POST")
	api.HandleFunc("/playgrounds/{name}", h.GetPlayground).Methods("GET")
	api.HandleFunc("/playgrounds/{name}", h.DeletePlayground).Methods("DELETE")
	api.HandleFunc("/playgrounds/{name}/export", h.ExportPlayground).Methods("GET")
	api.HandleFunc("/schema", h.GetSchema).Methods("GET")

	// Script and variable endpoints, for a playground and for one of its snapshots
	for _, prefix := range []string{"/playgrounds/{name}", "/playgrounds/{name}/snapshots/{id}"} {
		api.HandleFunc(prefix+"/scripts", h.ListScripts).Methods("GET")
		api.HandleFunc(prefix+"/scripts", h.AddScript).Methods("POST")
		api.HandleFunc(prefix+"/scripts/{script}", h.GetScript).Methods("GET")
		api.HandleFunc(prefix+"/scripts/{script}", h.WriteScript).Methods("PUT")
		api.HandleFunc(prefix+"/scripts/{script}", h.DeleteScript).Methods("DELETE")
		api.HandleFunc(prefix+"/scripts/{script}/testcase", h.AddTestCase).Methods("POST")
		api.HandleFunc(prefix+"/scripts/{script}/testcase", h.GetTestCase).Methods("GET")
		api.HandleFunc(prefix+"/scripts/{script}/testcase", h.DeleteTestCase).Methods("DELETE")
		api.HandleFunc(prefix+"/extvars", h.GetVariables).Methods("GET")
		api.HandleFunc(prefix+"/extvars", h.SaveVariables).Methods("PUT")
	}

	// Snapshot endpoints
	api.HandleFunc("/playgrounds/{name}/snapshots", snapshotHandler.ListSnapshots).Methods("GET")
	api.HandleFunc("/playgrounds/{name}/snapshots", snapshotHandler.TakeSnapshot).Methods("POST")
	api.HandleFunc("/playgrounds/{name}/snapshots/{id}", snapshotHandler.GetSnapshot).Methods("GET")
	api.HandleFunc("/playgrounds/{name}/snapshots/{id}", snapshotHandler.RenameSnapshot).Methods("PATCH")
	api.HandleFunc("/playgrounds/{name}/snapshots/{id}", snapshotHandler.DeleteSnapshot).Methods("DELETE")

	// Tree and selection endpoints
	api.HandleFunc("/tree", h.GetTree).Methods("GET")
	api.HandleFunc("/resolve", h.Resolve).Methods("GET")
	api.HandleFunc("/select", h.Select).Methods("POST")
	api.HandleFunc("/selection", h.GetSelection).Methods("GET")
	api.HandleFunc("/selection/document", h.GetActiveDocument).Methods("GET")

	// Library endpoints
	api.HandleFunc("/libraries", libraryHandler.ListLibraries).Methods("GET")
	api.HandleFunc("/libraries", libraryHandler.AddLibrary).Methods("POST")
	api.HandleFunc("/libraries/{name}", libraryHandler.GetLibrary).Methods("GET")
	api.HandleFunc("/libraries/{name}", libraryHandler.ImportLibrary).Methods("PUT")
	api.HandleFunc("/libraries/{name}", libraryHandler.DeleteLibrary).Methods("DELETE")
	api.HandleFunc("/libraries/{name}/import", libraryHandler.GetImportStatement).Methods("GET")

	// Editor endpoints
	api.HandleFunc("/editors", libraryHandler.ListEditors).Methods("GET")
	api.HandleFunc("/editors", libraryHandler.OpenEditor).Methods("POST")
	api.HandleFunc("/editors", libraryHandler.CloseEditor).Methods("DELETE")

	// Change stream
	api.HandleFunc("/events", eventServer.HandleStream).Methods("GET")

	// CORS middleware
	r.Use(corsMiddleware)

	return r
}
