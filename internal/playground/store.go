// Package playground is the top-level registry of playgrounds. It owns the
// playground directories and coordinates the script, variable and snapshot
// stores for every mutation.
package playground

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/andythehood/datatransformer-playground/internal/bundle"
	"github.com/andythehood/datatransformer-playground/internal/execution"
	"github.com/andythehood/datatransformer-playground/internal/scripts"
	"github.com/andythehood/datatransformer-playground/internal/snapshot"
	"github.com/andythehood/datatransformer-playground/internal/variables"
	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

// Executor evaluates a script on behalf of a playground
type Executor interface {
	Exec(ctx context.Context, playground string, req models.ExecRequest) (*models.ExecResponse, error)
}

// Observer is told after every successful mutation
type Observer interface {
	Refresh(ctx context.Context) error
}

// Store manages playgrounds under one root directory
type Store struct {
	root      string
	editors   workspace.Editors
	executor  Executor
	scripts   *scripts.Store
	variables *variables.Store
	snapshots *snapshot.Manager
	codec     *bundle.Codec

	observer    Observer
	playgrounds []*models.Playground
	mu          sync.Mutex   // serializes mutations
	listMu      sync.RWMutex // guards playgrounds and observer
}

// NewStore creates a store rooted at root, the playgrounds directory
func NewStore(root string, editors workspace.Editors, executor Executor) *Store {
	if editors == nil {
		editors = workspace.NoEditors{}
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	scriptStore := scripts.NewStore(editors)
	variableStore := variables.NewStore()
	snapshots := snapshot.NewManager(editors)

	return &Store{
		root:      root,
		editors:   editors,
		executor:  executor,
		scripts:   scriptStore,
		variables: variableStore,
		snapshots: snapshots,
		codec:     bundle.NewCodec(scriptStore, variableStore, snapshots),
	}
}

// Observe registers the observer refreshed after each mutation
func (s *Store) Observe(o Observer) {
	s.listMu.Lock()
	s.observer = o
	s.listMu.Unlock()
}

// Root returns the playgrounds directory
func (s *Store) Root() string { return s.root }

// ScriptStore returns the script store shared by all playgrounds
func (s *Store) ScriptStore() *scripts.Store { return s.scripts }

// VariableStore returns the variable store shared by all playgrounds
func (s *Store) VariableStore() *variables.Store { return s.variables }

// List scans the root and rebuilds the in-memory playground list
func (s *Store) List(ctx context.Context) ([]*models.Playground, error) {
	entries, err := workspace.Entries(s.root, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list playgrounds: %w", err)
	}

	playgrounds := make([]*models.Playground, 0, len(entries))
	for _, e := range entries {
		p := &models.Playground{
			Name:     e.Name(),
			Location: filepath.Join(s.root, e.Name()),
		}
		snaps, err := s.snapshots.List(ctx, p)
		if err != nil {
			return nil, err
		}
		p.Snapshots = snaps
		playgrounds = append(playgrounds, p)
	}

	s.listMu.Lock()
	s.playgrounds = playgrounds
	s.listMu.Unlock()

	return playgrounds, nil
}

// Cached returns the list built by the last List call
func (s *Store) Cached() []*models.Playground {
	s.listMu.RLock()
	defer s.listMu.RUnlock()

	out := make([]*models.Playground, len(s.playgrounds))
	copy(out, s.playgrounds)
	return out
}

// Get returns a playground by name
func (s *Store) Get(ctx context.Context, name string) (*models.Playground, error) {
	playgrounds, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range playgrounds {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("playground %q: %w", name, workspace.ErrNotFound)
}

// Resolve maps a playground name and optional snapshot id to its entity
func (s *Store) Resolve(ctx context.Context, name, snapshotID string) (models.Entity, error) {
	p, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if snapshotID == "" {
		return p, nil
	}
	snap, ok := p.Snapshot(snapshotID)
	if !ok {
		return nil, fmt.Errorf("snapshot %s of %q: %w", snapshotID, name, workspace.ErrNotFound)
	}
	return snap, nil
}

// Container returns the directory owning scripts and variables for a
// playground, or for one of its snapshots when snapshotID is set.
func (s *Store) Container(ctx context.Context, name, snapshotID string) (models.Container, error) {
	entity, err := s.Resolve(ctx, name, snapshotID)
	if err != nil {
		return models.Container{}, err
	}
	switch e := entity.(type) {
	case *models.Playground:
		return e.Container(), nil
	case *models.Snapshot:
		return e.Container(), nil
	default:
		return models.Container{}, fmt.Errorf("%s is not a container: %w", entity.Kind(), workspace.ErrNotFound)
	}
}

// Create adds a playground with a default script and an empty variable list
func (s *Store) Create(ctx context.Context, name string) (*models.Playground, error) {
	if err := workspace.ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.Name == name {
			return nil, fmt.Errorf("playground %q: %w", name, workspace.ErrNameConflict)
		}
	}

	p := &models.Playground{
		Name:      name,
		Location:  filepath.Join(s.root, name),
		Snapshots: []models.Snapshot{},
	}

	for _, dir := range []string{workspace.ScriptsDir, workspace.SnapshotsDir} {
		if err := os.MkdirAll(filepath.Join(p.Location, dir), 0755); err != nil {
			return nil, fmt.Errorf("unable to create directory: %w", err)
		}
	}

	defaultScript := filepath.Join(p.Location, workspace.ScriptsDir, models.DefaultScript)
	if err := os.WriteFile(defaultScript, []byte(workspace.StarterSnippet), 0644); err != nil {
		return nil, fmt.Errorf("failed to write default script: %w", err)
	}
	if err := workspace.WriteJSON(filepath.Join(p.Location, workspace.ExtVarsFile), variables.Variables{}); err != nil {
		return nil, err
	}

	log.Printf("✅ Created playground %s", name)
	s.changed(ctx)
	return p, nil
}

// Delete closes editors on every script of the playground and its snapshots,
// then removes the playground directory.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(ctx, name)
	if err != nil {
		return err
	}

	s.closeEditors(ctx, p)
	if err := os.RemoveAll(p.Location); err != nil {
		return fmt.Errorf("failed to delete playground %q: %w", name, err)
	}

	s.clearSelection(ctx, name)
	log.Printf("🗑️ Deleted playground %s", name)
	s.changed(ctx)
	return nil
}

// closeEditors closes every script and test case of p, snapshots included
func (s *Store) closeEditors(ctx context.Context, p *models.Playground) {
	paths, err := snapshot.ScriptFiles(p.Location)
	if err != nil {
		log.Printf("⚠️ Failed to list scripts of %s: %v", p.Name, err)
	}
	for _, snap := range p.Snapshots {
		snapPaths, err := snapshot.ScriptFiles(snap.Location)
		if err != nil {
			log.Printf("⚠️ Failed to list scripts of snapshot %s: %v", snap.ID, err)
			continue
		}
		paths = append(paths, snapPaths...)
	}
	workspace.CloseAll(ctx, s.editors, paths...)
}

// clearSelection drops the active container when it belonged to a removed playground
func (s *Store) clearSelection(ctx context.Context, name string, snapshotID ...string) {
	active, ok := s.scripts.Active()
	if !ok || active.Playground != name {
		return
	}
	if len(snapshotID) > 0 && active.SnapshotID != snapshotID[0] {
		return
	}
	s.scripts.Select(ctx, nil)
	s.variables.Select(ctx, nil)
}

// Scripts lists the scripts of a playground or snapshot
func (s *Store) Scripts(ctx context.Context, name, snapshotID string) ([]*models.Script, error) {
	c, err := s.Container(ctx, name, snapshotID)
	if err != nil {
		return nil, err
	}
	return s.scripts.List(ctx, c)
}

// Script returns one script of a playground or snapshot
func (s *Store) Script(ctx context.Context, name, snapshotID, script string) (*models.Script, error) {
	c, err := s.Container(ctx, name, snapshotID)
	if err != nil {
		return nil, err
	}
	return s.scripts.Get(ctx, c, script)
}

// ReadScript returns a script's content
func (s *Store) ReadScript(ctx context.Context, name, snapshotID, script string) (string, error) {
	sc, err := s.Script(ctx, name, snapshotID, script)
	if err != nil {
		return "", err
	}
	return s.scripts.Read(sc)
}

// AddScript creates a script with the starter snippet
func (s *Store) AddScript(ctx context.Context, name, snapshotID, script string) (*models.Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Container(ctx, name, snapshotID)
	if err != nil {
		return nil, err
	}
	sc, err := s.scripts.Add(ctx, c, script)
	if err != nil {
		return nil, err
	}

	s.changed(ctx)
	return sc, nil
}

// DeleteScript removes a script and its test case
func (s *Store) DeleteScript(ctx context.Context, name, snapshotID, script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.Script(ctx, name, snapshotID, script)
	if err != nil {
		return err
	}
	if err := s.scripts.Delete(ctx, sc); err != nil {
		return err
	}

	s.changed(ctx)
	return nil
}

// WriteScript replaces a script's content
func (s *Store) WriteScript(ctx context.Context, name, snapshotID, script, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.Script(ctx, name, snapshotID, script)
	if err != nil {
		return err
	}
	return s.scripts.Write(sc, content)
}

// AddTestCase gives a script an expected output, keeping an existing one
func (s *Store) AddTestCase(ctx context.Context, name, snapshotID, script string) (*models.TestCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.Script(ctx, name, snapshotID, script)
	if err != nil {
		return nil, err
	}
	existed := sc.TestCase != nil
	testCase, err := s.scripts.AddTestCase(ctx, sc)
	if err != nil {
		return nil, err
	}

	if !existed {
		s.changed(ctx)
	}
	return testCase, nil
}

// ReadTestCase returns the expected output of a script
func (s *Store) ReadTestCase(ctx context.Context, name, snapshotID, script string) (string, error) {
	sc, err := s.Script(ctx, name, snapshotID, script)
	if err != nil {
		return "", err
	}
	content, err := s.scripts.ReadTestCase(sc)
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", fmt.Errorf("test case of %q: %w", script, workspace.ErrNotFound)
	}
	return *content, nil
}

// DeleteTestCase removes a script's expected output
func (s *Store) DeleteTestCase(ctx context.Context, name, snapshotID, script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.Script(ctx, name, snapshotID, script)
	if err != nil {
		return err
	}
	if err := s.scripts.DeleteTestCase(ctx, sc); err != nil {
		return err
	}

	s.changed(ctx)
	return nil
}

// Variables loads the variable list of a playground or snapshot
func (s *Store) Variables(ctx context.Context, name, snapshotID string) (variables.Variables, error) {
	c, err := s.Container(ctx, name, snapshotID)
	if err != nil {
		return nil, err
	}
	return s.variables.Load(ctx, c)
}

// SaveVariables replaces the variable list of a playground
func (s *Store) SaveVariables(ctx context.Context, name, snapshotID string, vars variables.Variables) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Container(ctx, name, snapshotID)
	if err != nil {
		return err
	}
	return s.variables.Save(ctx, c, vars)
}

// Snapshots lists a playground's snapshots, newest first
func (s *Store) Snapshots(ctx context.Context, name string) ([]models.Snapshot, error) {
	p, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.Snapshots, nil
}

// TakeSnapshot copies the playground's scripts and variables into a new
// snapshot. An incomplete copy returns both the snapshot and the error.
func (s *Store) TakeSnapshot(ctx context.Context, name, label string) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshots.Take(ctx, p, label)
	if snap == nil {
		return nil, err
	}

	log.Printf("📸 Snapshot %s of %s taken", snap.ID, name)
	s.changed(ctx)
	return snap, err
}

// RenameSnapshot relabels a snapshot. An empty label restores the timestamp label.
func (s *Store) RenameSnapshot(ctx context.Context, name, snapshotID, label string) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx, name, snapshotID)
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.Rename(ctx, snap, label); err != nil {
		return nil, err
	}

	s.changed(ctx)
	return snap, nil
}

// DeleteSnapshot removes a snapshot. The parent playground is untouched.
func (s *Store) DeleteSnapshot(ctx context.Context, name, snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx, name, snapshotID)
	if err != nil {
		return err
	}
	parent, err := s.snapshots.Delete(ctx, snap)
	if err != nil {
		return err
	}

	s.clearSelection(ctx, parent, snapshotID)
	s.changed(ctx)
	return nil
}

func (s *Store) snapshot(ctx context.Context, name, snapshotID string) (*models.Snapshot, error) {
	entity, err := s.Resolve(ctx, name, snapshotID)
	if err != nil {
		return nil, err
	}
	snap, ok := entity.(*models.Snapshot)
	if !ok {
		return nil, fmt.Errorf("snapshot id is required: %w", workspace.ErrNotFound)
	}
	return snap, nil
}

// Export builds the portable bundle of a playground
func (s *Store) Export(ctx context.Context, name string) (*models.Bundle, error) {
	p, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.codec.Export(ctx, p)
}

// Import recreates a playground from an exported bundle. Everything is
// validated before the first directory is created. An existing playground
// of the same name is only replaced when overwrite is set.
func (s *Store) Import(ctx context.Context, data []byte, overwrite bool) (*models.Playground, error) {
	b, err := bundle.Decode(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, b.Name)
	existing, err := s.Get(ctx, b.Name)
	if err != nil && !errors.Is(err, workspace.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if !overwrite {
			return nil, fmt.Errorf("playground %q: %w", b.Name, workspace.ErrNameConflict)
		}
		s.closeEditors(ctx, existing)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to replace playground %q: %w", b.Name, err)
		}
		s.clearSelection(ctx, b.Name)
	}

	if err := s.codec.Write(ctx, dir, b); err != nil {
		// Written files stay; the caller sees what was committed on the next list.
		s.changed(ctx)
		return nil, fmt.Errorf("import %q: %w", b.Name, err)
	}

	log.Printf("📦 Imported playground %s with %d snapshot(s)", b.Name, len(b.Snapshots))
	s.changed(ctx)
	return s.Get(ctx, b.Name)
}

// Locate parses a document path. Relative paths are taken from the root.
func (s *Store) Locate(path string) (workspace.Location, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	return workspace.ParsePath(s.root, path)
}

// Run executes the script behind a document path. Content replaces the
// stored script text when the document itself is the script.
func (s *Store) Run(ctx context.Context, req models.RunRequest) (*models.RunResult, error) {
	if s.executor == nil {
		return nil, errors.New("no execution service configured")
	}

	loc, err := s.Locate(req.Path)
	if err != nil {
		return nil, err
	}
	if loc.Script == "" {
		return nil, fmt.Errorf("%s is not a script: %w", req.Path, workspace.ErrNotFound)
	}

	c, err := s.Container(ctx, loc.Playground, loc.SnapshotID)
	if err != nil {
		return nil, err
	}
	sc, err := s.scripts.Get(ctx, c, loc.Script)
	if err != nil {
		return nil, err
	}

	snippet := req.Content
	if loc.TestCase || snippet == "" {
		if snippet, err = s.scripts.Read(sc); err != nil {
			return nil, err
		}
	}

	vars, err := s.variables.Load(ctx, c)
	if err != nil {
		return nil, err
	}

	resp, err := s.executor.Exec(ctx, c.Playground, models.ExecRequest{
		Script:  sc.Name,
		Snippet: snippet,
		ExtVars: vars,
	})
	if err != nil {
		return nil, err
	}

	result := &models.RunResult{
		Container: c,
		Script:    sc.Name,
		Response:  resp,
	}
	if !resp.OK() {
		if d, ok := execution.ParseDiagnostic(sc.Name, resp.Message); ok {
			result.Diagnostic = d
		}
	}
	if result.Expected, err = s.scripts.ReadTestCase(sc); err != nil {
		return nil, err
	}
	return result, nil
}

// changed refreshes the observer. A failed refresh does not undo the mutation.
func (s *Store) changed(ctx context.Context) {
	s.listMu.RLock()
	o := s.observer
	s.listMu.RUnlock()

	if o == nil {
		return
	}
	if err := o.Refresh(ctx); err != nil {
		log.Printf("⚠️ Failed to refresh playground tree: %v", err)
	}
}
