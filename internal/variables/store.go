// Package variables manages the external variable list (extVars.json) of a
// playground or snapshot.
package variables

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

// Variables is an ordered variable list. The zero value is an empty list.
type Variables []models.ExternalVariable

// Has reports whether a variable called name is in the list
func (v Variables) Has(name string) bool {
	return v.index(name) >= 0
}

func (v Variables) index(name string) int {
	for i := range v {
		if v[i].Name == name {
			return i
		}
	}
	return -1
}

// SetOpen sets the UI expansion flag of the named variable
func (v Variables) SetOpen(name string, open bool) bool {
	i := v.index(name)
	if i < 0 {
		return false
	}
	v[i].Open = open
	return true
}

// Remove returns the list without the named variable
func (v Variables) Remove(name string) Variables {
	i := v.index(name)
	if i < 0 {
		return v
	}
	return append(v[:i:i], v[i+1:]...)
}

// Append adds a variable at the end of the list.
// Callers check Has first; a duplicate name is still rejected here.
func (v Variables) Append(variable models.ExternalVariable) (Variables, error) {
	if v.Has(variable.Name) {
		return v, fmt.Errorf("%w: duplicate name %q", workspace.ErrInvalidVariable, variable.Name)
	}
	return append(v, variable), nil
}

// Validate checks names are present and unique and types are known
func Validate(v Variables) error {
	seen := make(map[string]bool, len(v))
	for _, variable := range v {
		if variable.Name == "" {
			return fmt.Errorf("%w: name cannot be empty", workspace.ErrInvalidVariable)
		}
		if seen[variable.Name] {
			return fmt.Errorf("%w: duplicate name %q", workspace.ErrInvalidVariable, variable.Name)
		}
		if !variable.Type.Valid() {
			return fmt.Errorf("%w: %q has unknown type %q", workspace.ErrInvalidVariable, variable.Name, variable.Type)
		}
		seen[variable.Name] = true
	}
	return nil
}

// Store reads and writes variable files and remembers the active container
type Store struct {
	active *models.Container
	mu     sync.RWMutex
}

// NewStore creates a variable store with no active container
func NewStore() *Store {
	return &Store{}
}

// Load reads the container's variables. A missing or empty file is an empty list.
func (s *Store) Load(ctx context.Context, c models.Container) (Variables, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(workspace.ExtVarsPath(c))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Variables{}, nil
		}
		return nil, fmt.Errorf("failed to read variables of %s: %w", c, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return Variables{}, nil
	}

	var vars Variables
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("failed to parse variables of %s: %w", c, err)
	}
	if vars == nil {
		vars = Variables{}
	}
	return vars, nil
}

// Save replaces the container's whole variable list
func (s *Store) Save(ctx context.Context, c models.Container, vars Variables) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ReadOnly() {
		return fmt.Errorf("save variables of %s: %w", c, workspace.ErrReadOnly)
	}
	if err := Validate(vars); err != nil {
		return err
	}
	if vars == nil {
		vars = Variables{}
	}
	return workspace.WriteJSON(workspace.ExtVarsPath(c), vars)
}

// Select makes c the active container and returns its variables.
// A nil container clears the selection.
func (s *Store) Select(ctx context.Context, c *models.Container) (Variables, error) {
	if c == nil {
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
		return Variables{}, nil
	}

	vars, err := s.Load(ctx, *c)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	selected := *c
	s.active = &selected
	s.mu.Unlock()

	return vars, nil
}

// Active returns the selected container, if any
func (s *Store) Active() (models.Container, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return models.Container{}, false
	}
	return *s.active, true
}
