// Package library manages the shared .libsonnet files that scripts of any
// playground can import.
package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andythehood/datatransformer-playground/internal/events"
	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

// StarterBody is written to every new library
const StarterBody = "{\n  func(a,b)::\n    a + b\n}"

// Store handles library files under one directory
type Store struct {
	root    string
	editors workspace.Editors
	events  events.Publisher
	mu      sync.Mutex
}

// NewStore creates a library store rooted at root
func NewStore(root string, editors workspace.Editors, pub events.Publisher) *Store {
	if editors == nil {
		editors = workspace.NoEditors{}
	}
	return &Store{
		root:    root,
		editors: editors,
		events:  pub,
	}
}

// FileName appends the library suffix when name does not carry it
func FileName(name string) string {
	if filepath.Ext(name) == models.LibrarySuffix {
		return name
	}
	return name + models.LibrarySuffix
}

// ImportStatement is the line a script uses to import the library
func ImportStatement(name string) string {
	base := strings.TrimSuffix(FileName(name), models.LibrarySuffix)
	return fmt.Sprintf("local %s = import '%s%s';\n", base, base, models.LibrarySuffix)
}

// List returns every library. A missing directory is an empty list.
func (s *Store) List(ctx context.Context) ([]models.Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := workspace.Entries(s.root, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}

	libs := make([]models.Library, 0, len(entries))
	for _, e := range entries {
		libs = append(libs, models.Library{
			Name: e.Name(),
			Path: filepath.Join(s.root, e.Name()),
		})
	}
	return libs, nil
}

// Add creates a library holding the starter body
func (s *Store) Add(ctx context.Context, name string) (*models.Library, error) {
	return s.write(ctx, name, StarterBody, false)
}

// Import stores content as a library, replacing one of the same name
func (s *Store) Import(ctx context.Context, name, content string) (*models.Library, error) {
	return s.write(ctx, name, content, true)
}

func (s *Store) write(ctx context.Context, name, content string, replace bool) (*models.Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := workspace.ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lib := &models.Library{Name: FileName(name)}
	lib.Path = filepath.Join(s.root, lib.Name)

	if !replace && workspace.Exists(lib.Path) {
		return nil, fmt.Errorf("library %q: %w", lib.Name, workspace.ErrNameConflict)
	}

	if err := os.MkdirAll(s.root, 0755); err != nil {
		return nil, fmt.Errorf("unable to create libraries directory: %w", err)
	}
	if err := os.WriteFile(lib.Path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write library %q: %w", lib.Name, err)
	}

	s.changed(lib.Path)
	return lib, nil
}

// Read returns a library's content
func (s *Store) Read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, FileName(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("library %q: %w", name, workspace.ErrNotFound)
		}
		return "", fmt.Errorf("failed to read library %q: %w", name, err)
	}
	return string(data), nil
}

// Delete closes the library's editor and removes it
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := workspace.ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.root, FileName(name))
	workspace.CloseAll(ctx, s.editors, path)

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("library %q: %w", name, workspace.ErrNotFound)
		}
		return fmt.Errorf("failed to delete library %q: %w", name, err)
	}

	s.changed(path)
	return nil
}

func (s *Store) changed(path string) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.Event{Type: events.LibraryChanged, Path: path})
}
