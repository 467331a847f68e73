// Package tree keeps an in-memory mirror of the playground hierarchy for a
// UI layer, maps document paths back to entities and tracks the selection.
package tree

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/andythehood/datatransformer-playground/internal/events"
	"github.com/andythehood/datatransformer-playground/internal/playground"
	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

// Selection is the container the UI layer is looking at
type Selection struct {
	Container models.Container          `json:"container"`
	Scripts   []*models.Script          `json:"scripts"`
	Variables []models.ExternalVariable `json:"extVars"`
}

// Index mirrors the playground store
type Index struct {
	store *playground.Store
	hub   *events.Hub
	group singleflight.Group
	nodes []*models.Playground
	mu    sync.RWMutex

	// started counts scans begun, applied is the newest scan stored in nodes
	started uint64
	applied uint64
}

// NewIndex creates an index and registers it as the store's observer
func NewIndex(store *playground.Store, hub *events.Hub) *Index {
	idx := &Index{
		store: store,
		hub:   hub,
	}
	store.Observe(idx)
	return idx
}

// Refresh rebuilds the mirror with a scan that starts after the call, so the
// result always includes writes the caller has already made.
func (i *Index) Refresh(ctx context.Context) error {
	i.group.Forget("refresh")
	return i.Sync(ctx)
}

// Sync rebuilds the mirror from disk and announces the change.
// Calls that overlap a running scan share its result.
func (i *Index) Sync(ctx context.Context) error {
	_, err, _ := i.group.Do("refresh", func() (interface{}, error) {
		return nil, i.scan(ctx)
	})
	return err
}

func (i *Index) scan(ctx context.Context) error {
	gen := i.begin()
	playgrounds, err := i.store.List(ctx)
	if err != nil {
		return err
	}
	i.apply(gen, playgrounds)

	if active, ok := i.store.ScriptStore().Active(); ok {
		if err := i.store.ScriptStore().Reload(ctx, active); err != nil {
			return err
		}
		i.hub.Publish(events.Event{
			Type:       events.ScriptsChanged,
			Playground: active.Playground,
			SnapshotID: active.SnapshotID,
		})
	}

	i.hub.Publish(events.Event{Type: events.TreeChanged})
	return nil
}

// begin numbers a scan before it reads the disk
func (i *Index) begin() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.started++
	return i.started
}

// apply stores the result of scan gen unless a later scan already landed
func (i *Index) apply(gen uint64, playgrounds []*models.Playground) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if gen < i.applied {
		return
	}
	i.nodes = playgrounds
	i.applied = gen
}

// Playgrounds returns the mirrored list as of the last refresh
func (i *Index) Playgrounds() []*models.Playground {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]*models.Playground, len(i.nodes))
	copy(out, i.nodes)
	return out
}

// Subscribe registers for change notifications
func (i *Index) Subscribe() (string, <-chan events.Event) {
	return i.hub.Subscribe()
}

// Unsubscribe stops change notifications for id
func (i *Index) Unsubscribe(id string) {
	i.hub.Unsubscribe(id)
}

// ResolvePath maps a document path, absolute or relative to the root, to the
// playground, snapshot and script it belongs to. Snapshot and script are nil
// when the path stops above them.
func (i *Index) ResolvePath(ctx context.Context, path string) (*models.Playground, *models.Snapshot, *models.Script, error) {
	loc, err := i.store.Locate(path)
	if err != nil {
		return nil, nil, nil, err
	}

	p := i.find(loc.Playground)
	if p == nil {
		return nil, nil, nil, fmt.Errorf("playground %q: %w", loc.Playground, workspace.ErrNotFound)
	}

	var snap *models.Snapshot
	container := p.Container()
	if loc.InSnapshot() {
		var ok bool
		if snap, ok = p.Snapshot(loc.SnapshotID); !ok {
			return nil, nil, nil, fmt.Errorf("snapshot %s of %q: %w", loc.SnapshotID, p.Name, workspace.ErrNotFound)
		}
		container = snap.Container()
	}

	if loc.Script == "" {
		return p, snap, nil, nil
	}

	script, err := i.store.ScriptStore().Get(ctx, container, loc.Script)
	if err != nil {
		return nil, nil, nil, err
	}
	return p, snap, script, nil
}

// Entity resolves a document path to the most specific entity it names
func (i *Index) Entity(ctx context.Context, path string) (models.Entity, error) {
	p, snap, script, err := i.ResolvePath(ctx, path)
	if err != nil {
		return nil, err
	}

	loc, _ := i.store.Locate(path)
	switch {
	case script != nil && loc.TestCase:
		if script.TestCase == nil {
			return nil, fmt.Errorf("test case of %q: %w", script.Name, workspace.ErrNotFound)
		}
		return script.TestCase, nil
	case script != nil:
		return script, nil
	case snap != nil:
		return snap, nil
	default:
		return p, nil
	}
}

func (i *Index) find(name string) *models.Playground {
	i.mu.RLock()
	nodes := i.nodes
	i.mu.RUnlock()

	if nodes == nil {
		nodes = i.store.Cached()
	}
	for _, p := range nodes {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// OnSelect makes the container owning entity active in the variable and
// script stores. The script list is published only after it has been read.
// A nil entity clears the selection.
func (i *Index) OnSelect(ctx context.Context, entity models.Entity) (*Selection, error) {
	var container *models.Container

	switch e := entity.(type) {
	case nil:
	case *models.Playground:
		c := e.Container()
		container = &c
	case *models.Snapshot:
		c := e.Container()
		container = &c
	case *models.Script:
		c := e.Container
		container = &c
	case *models.TestCase:
		p, snap, _, err := i.ResolvePath(ctx, e.ScriptPath())
		if err != nil {
			return nil, err
		}
		c := p.Container()
		if snap != nil {
			c = snap.Container()
		}
		container = &c
	default:
		return nil, fmt.Errorf("unsupported entity kind %s", entity.Kind())
	}

	vars, err := i.store.VariableStore().Select(ctx, container)
	if err != nil {
		return nil, err
	}
	list, err := i.store.ScriptStore().Select(ctx, container)
	if err != nil {
		return nil, err
	}

	event := events.Event{Type: events.SelectionChanged}
	selection := &Selection{Scripts: list, Variables: vars}
	if container != nil {
		selection.Container = *container
		event.Playground = container.Playground
		event.SnapshotID = container.SnapshotID
	}
	i.hub.Publish(event)

	return selection, nil
}

// Active returns the current selection, or nil when nothing is selected
func (i *Index) Active(ctx context.Context) (*Selection, error) {
	c, ok := i.store.ScriptStore().Active()
	if !ok {
		return nil, nil
	}
	vars, err := i.store.VariableStore().Load(ctx, c)
	if err != nil {
		return nil, err
	}
	return &Selection{
		Container: c,
		Scripts:   i.store.ScriptStore().Current(),
		Variables: vars,
	}, nil
}

// ActiveDocument returns the script or test case of the selection that path
// points at, falling back to the first script.
func (i *Index) ActiveDocument(path string) models.Entity {
	if !filepath.IsAbs(path) {
		path = filepath.Join(i.store.Root(), path)
	}
	return i.store.ScriptStore().ResolveActiveOrDefault(path)
}
