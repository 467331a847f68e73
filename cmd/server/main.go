package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andythehood/datatransformer-playground/internal/api"
	"github.com/andythehood/datatransformer-playground/internal/config"
	"github.com/andythehood/datatransformer-playground/internal/editor"
	"github.com/andythehood/datatransformer-playground/internal/events"
	"github.com/andythehood/datatransformer-playground/internal/execution"
	"github.com/andythehood/datatransformer-playground/internal/library"
	"github.com/andythehood/datatransformer-playground/internal/playground"
	"github.com/andythehood/datatransformer-playground/internal/ratelimit"
	"github.com/andythehood/datatransformer-playground/internal/tree"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Println("Starting Playground Store...")

	// Initialize event hub and editor registry
	hub := events.NewHub(64)
	editors := editor.NewRegistry(hub)
	log.Println("✓ Event hub and editor registry initialized")

	// Initialize execution client
	execClient := execution.NewClient(cfg.Exec.ServerURL, cfg.Exec.Timeout, cfg.Exec.MaxConcurrent)
	log.Printf("✓ Execution client initialized (%s)", cfg.Exec.ServerURL)

	// Initialize playground store and tree index
	store := playground.NewStore(cfg.PlaygroundsPath(), editors, execClient)
	index := tree.NewIndex(store, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := index.Refresh(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to read playgrounds: %v", err)
	}
	cancel()
	log.Printf("✓ Playground store initialized (%d playgrounds)", len(index.Playgrounds()))

	// Initialize library store
	libraries := library.NewStore(cfg.LibrariesPath(), editors, hub)
	log.Println("✓ Library store initialized")

	// Initialize WebSocket event stream
	eventServer := events.NewServer(hub)
	log.Println("✓ WebSocket event stream initialized")

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(cfg.Exec.RunsPerMinute, cfg.Exec.Burst)
	log.Printf("✓ Rate limiter initialized (%d runs/minute per playground)", cfg.Exec.RunsPerMinute)

	// Setup HTTP handlers
	handler := api.NewHandler(store, index, execClient)
	snapshotHandler := api.NewSnapshotHandler(store)
	libraryHandler := api.NewLibraryHandler(libraries, editors)

	router := handler.SetupRoutes(snapshotHandler, libraryHandler, eventServer, rateLimiter)
	log.Println("✓ HTTP routes configured")

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Exec.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%s", cfg.Server.Port)
		log.Printf("📍 API endpoints available at http://localhost:%s/v1", cfg.Server.Port)
		log.Printf("💾 Playgrounds: %s", cfg.PlaygroundsPath())
		log.Printf("📚 Libraries: %s", cfg.LibrariesPath())
		log.Println("🔔 Events: WebSocket change stream at /v1/events")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("⏳ Shutting down server gracefully...")

	// Shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
