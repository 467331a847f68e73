// Package scripts manages the script files and test cases of one playground
// or snapshot container.
package scripts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

// Store handles script operations and holds the script list of the active container
type Store struct {
	editors workspace.Editors
	active  *models.Container
	scripts []*models.Script
	mu      sync.RWMutex
}

// NewStore creates a script store that closes editors through editors
func NewStore(editors workspace.Editors) *Store {
	if editors == nil {
		editors = workspace.NoEditors{}
	}
	return &Store{
		editors: editors,
	}
}

// List reads the container's scripts. The default script comes first, the
// rest keep directory order.
func (s *Store) List(ctx context.Context, c models.Container) ([]*models.Script, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := workspace.ScriptsPath(c)
	entries, err := workspace.Entries(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts of %s: %w", c, err)
	}

	var first, rest []*models.Script
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, models.TestCaseSuffix) {
			continue
		}

		script := &models.Script{
			Name:      name,
			Path:      filepath.Join(dir, name),
			Container: c,
		}
		testCasePath := script.Path + models.TestCaseSuffix
		if workspace.Exists(testCasePath) {
			script.TestCase = &models.TestCase{Script: name, Path: testCasePath}
		}

		if script.IsDefault() {
			first = append(first, script)
		} else {
			rest = append(rest, script)
		}
	}

	return append(first, rest...), nil
}

// Select lists c and only then publishes the result as the active script list.
// A nil container clears it.
func (s *Store) Select(ctx context.Context, c *models.Container) ([]*models.Script, error) {
	if c == nil {
		s.mu.Lock()
		s.active, s.scripts = nil, nil
		s.mu.Unlock()
		return nil, nil
	}

	scripts, err := s.List(ctx, *c)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	selected := *c
	s.active, s.scripts = &selected, scripts
	s.mu.Unlock()

	return scripts, nil
}

// Reload re-lists the active container if it is c
func (s *Store) Reload(ctx context.Context, c models.Container) error {
	active, ok := s.Active()
	if !ok || active.Dir != c.Dir {
		return nil
	}
	_, err := s.Select(ctx, &active)
	return err
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

// Current returns the active script list
func (s *Store) Current() []*models.Script {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Script, len(s.scripts))
	copy(out, s.scripts)
	return out
}

// Get finds a script of c by name
func (s *Store) Get(ctx context.Context, c models.Container, name string) (*models.Script, error) {
	scripts, err := s.List(ctx, c)
	if err != nil {
		return nil, err
	}
	for _, script := range scripts {
		if script.Name == name {
			return script, nil
		}
	}
	return nil, fmt.Errorf("script %q in %s: %w", name, c, workspace.ErrNotFound)
}

// Add creates a script holding the starter snippet
func (s *Store) Add(ctx context.Context, c models.Container, name string) (*models.Script, error) {
	if c.ReadOnly() {
		return nil, fmt.Errorf("add script to %s: %w", c, workspace.ErrReadOnly)
	}
	if err := workspace.ValidateName(name); err != nil {
		return nil, err
	}
	if strings.HasSuffix(name, models.TestCaseSuffix) {
		return nil, fmt.Errorf("%w: %q ends with %s", workspace.ErrInvalidName, name, models.TestCaseSuffix)
	}

	existing, err := s.List(ctx, c)
	if err != nil {
		return nil, err
	}
	for _, script := range existing {
		if script.Name == name {
			return nil, fmt.Errorf("script %q: %w", name, workspace.ErrNameConflict)
		}
	}

	dir := workspace.ScriptsPath(c)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scripts directory: %w", err)
	}

	script := &models.Script{
		Name:      name,
		Path:      filepath.Join(dir, name),
		Container: c,
	}
	if err := os.WriteFile(script.Path, []byte(workspace.StarterSnippet), 0644); err != nil {
		return nil, fmt.Errorf("failed to write script %q: %w", name, err)
	}

	if err := s.Reload(ctx, c); err != nil {
		return nil, err
	}
	return script, nil
}

// Delete removes the script and its test case, closing their editors first
func (s *Store) Delete(ctx context.Context, script *models.Script) error {
	if script.Container.ReadOnly() {
		return fmt.Errorf("delete script from %s: %w", script.Container, workspace.ErrReadOnly)
	}

	testCasePath := script.Path + models.TestCaseSuffix
	workspace.CloseAll(ctx, s.editors, script.Path, testCasePath)

	if err := os.Remove(script.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("script %q: %w", script.Name, workspace.ErrNotFound)
		}
		return fmt.Errorf("failed to delete script %q: %w", script.Name, err)
	}
	if err := os.Remove(testCasePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete test case of %q: %w", script.Name, err)
	}
	script.TestCase = nil

	return s.Reload(ctx, script.Container)
}

// AddTestCase creates an empty expected output for script. An existing test
// case is returned untouched.
func (s *Store) AddTestCase(ctx context.Context, script *models.Script) (*models.TestCase, error) {
	testCase := &models.TestCase{
		Script: script.Name,
		Path:   script.Path + models.TestCaseSuffix,
	}
	if workspace.Exists(testCase.Path) {
		script.TestCase = testCase
		return testCase, nil
	}
	if script.Container.ReadOnly() {
		return nil, fmt.Errorf("add test case to %s: %w", script.Container, workspace.ErrReadOnly)
	}

	if err := os.WriteFile(testCase.Path, []byte("{}"), 0644); err != nil {
		return nil, fmt.Errorf("failed to write test case of %q: %w", script.Name, err)
	}
	script.TestCase = testCase

	if err := s.Reload(ctx, script.Container); err != nil {
		return nil, err
	}
	return testCase, nil
}

// DeleteTestCase removes the script's test case and clears the reference
func (s *Store) DeleteTestCase(ctx context.Context, script *models.Script) error {
	if script.TestCase == nil {
		return fmt.Errorf("test case of %q: %w", script.Name, workspace.ErrNotFound)
	}
	if script.Container.ReadOnly() {
		return fmt.Errorf("delete test case from %s: %w", script.Container, workspace.ErrReadOnly)
	}

	workspace.CloseAll(ctx, s.editors, script.TestCase.Path)

	if err := os.Remove(script.TestCase.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete test case of %q: %w", script.Name, err)
	}
	script.TestCase = nil

	return s.Reload(ctx, script.Container)
}

// Read returns the script's content
func (s *Store) Read(script *models.Script) (string, error) {
	data, err := os.ReadFile(script.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("script %q: %w", script.Name, workspace.ErrNotFound)
		}
		return "", fmt.Errorf("failed to read script %q: %w", script.Name, err)
	}
	return string(data), nil
}

// ReadTestCase returns the expected output of script, or nil when it has none
func (s *Store) ReadTestCase(script *models.Script) (*string, error) {
	if script.TestCase == nil {
		return nil, nil
	}
	data, err := os.ReadFile(script.TestCase.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read test case of %q: %w", script.Name, err)
	}
	content := string(data)
	return &content, nil
}

// Write replaces the content of an existing script
func (s *Store) Write(script *models.Script, content string) error {
	if script.Container.ReadOnly() {
		return fmt.Errorf("write script in %s: %w", script.Container, workspace.ErrReadOnly)
	}
	if !workspace.Exists(script.Path) {
		return fmt.Errorf("script %q: %w", script.Name, workspace.ErrNotFound)
	}
	if err := os.WriteFile(script.Path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write script %q: %w", script.Name, err)
	}
	return nil
}

// ResolveActiveOrDefault maps a document path to the active script, or test
// case, it belongs to. Anything else resolves to the first script.
func (s *Store) ResolveActiveOrDefault(path string) models.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.scripts) == 0 {
		return nil
	}

	target := strings.ToLower(filepath.Clean(path))
	isTestCase := strings.HasSuffix(target, models.TestCaseSuffix)
	scriptPath := strings.TrimSuffix(target, models.TestCaseSuffix)

	for _, script := range s.scripts {
		if isTestCase && script.TestCase != nil && strings.ToLower(script.Path) == scriptPath {
			return script.TestCase
		}
		if strings.ToLower(script.Path) == target {
			return script
		}
	}
	return s.scripts[0]
}
