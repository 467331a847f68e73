// Package editor keeps track of documents a connected UI has open, so that
// stores can ask for them to be closed before deleting the files behind them.
package editor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andythehood/datatransformer-playground/internal/events"
)

// Document is an open editor view
type Document struct {
	Path     string    `json:"path"`
	OpenedAt time.Time `json:"openedAt"`
}

// Registry handles open document bookkeeping
type Registry struct {
	documents sync.Map // lower-cased path -> *Document
	events    events.Publisher
}

// NewRegistry creates a registry that announces closes on pub
func NewRegistry(pub events.Publisher) *Registry {
	return &Registry{
		events: pub,
	}
}

// Paths are compared case-insensitively, matching editors on case-insensitive filesystems.
func key(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

// Open records that path is shown in an editor
func (r *Registry) Open(path string) (*Document, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	doc := &Document{
		Path:     filepath.Clean(path),
		OpenedAt: time.Now(),
	}
	actual, _ := r.documents.LoadOrStore(key(path), doc)

	return actual.(*Document), nil
}

// IsOpen reports whether path is open
func (r *Registry) IsOpen(path string) bool {
	_, ok := r.documents.Load(key(path))
	return ok
}

// CloseIfOpen forgets path and tells subscribers to close its view.
// Closing a path that is not open is a no-op.
func (r *Registry) CloseIfOpen(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, ok := r.documents.LoadAndDelete(key(path))
	if !ok {
		return nil
	}

	if r.events != nil {
		r.events.Publish(events.Event{
			Type: events.EditorClose,
			Path: value.(*Document).Path,
		})
	}
	return nil
}

// List returns open documents sorted by path
func (r *Registry) List() []*Document {
	var docs []*Document

	r.documents.Range(func(_, value interface{}) bool {
		docs = append(docs, value.(*Document))
		return true
	})

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs
}
