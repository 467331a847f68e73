package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

// LabelLayout renders a snapshot id as "Mon Jan 02 2006 3:04:05 PM" in local time
const LabelLayout = "Mon Jan 02 2006 3:04:05 PM"

// maxIDProbes bounds how far Take walks forward looking for a free id
const maxIDProbes = 1000

// Meta is the content of a snapshot's meta.json
type Meta struct {
	Label string `json:"label"`
}

// Manager handles snapshot persistence
type Manager struct {
	editors workspace.Editors
	now     func() time.Time
}

// NewManager creates a snapshot manager
func NewManager(editors workspace.Editors) *Manager {
	if editors == nil {
		editors = workspace.NoEditors{}
	}
	return &Manager{
		editors: editors,
		now:     time.Now,
	}
}

// DefaultLabel derives the timestamp label of a snapshot id
func DefaultLabel(id string) string {
	ms, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return id
	}
	return time.UnixMilli(ms).Local().Format(LabelLayout)
}

// LabelOf returns the label stored in dir/meta.json, falling back to the
// timestamp label when the file is missing, unreadable or has no label.
func LabelOf(dir, id string) string {
	data, err := os.ReadFile(filepath.Join(dir, workspace.MetaFile))
	if err != nil {
		return DefaultLabel(id)
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil || meta.Label == "" {
		return DefaultLabel(id)
	}
	return meta.Label
}

func snapshotsPath(p *models.Playground) string {
	return filepath.Join(p.Location, workspace.SnapshotsDir)
}

// List returns the playground's snapshots, newest first
func (m *Manager) List(ctx context.Context, p *models.Playground) ([]models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := snapshotsPath(p)
	entries, err := workspace.Entries(root, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots of %s: %w", p.Name, err)
	}

	snapshots := make([]models.Snapshot, 0, len(entries))
	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		snapshots = append(snapshots, models.Snapshot{
			ID:         e.Name(),
			Label:      LabelOf(dir, e.Name()),
			Playground: p.Name,
			Location:   dir,
		})
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return sortKey(snapshots[i].ID) > sortKey(snapshots[j].ID)
	})
	return snapshots, nil
}

// Ids that are not numbers sort after every real snapshot.
func sortKey(id string) int64 {
	ms, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return -1
	}
	return ms
}

// Take copies the playground's variables and scripts into a new snapshot.
// If copying fails the partially written snapshot is returned together with
// an error wrapping workspace.ErrSnapshotIncomplete.
func (m *Manager) Take(ctx context.Context, p *models.Playground, label string) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := snapshotsPath(p)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("unable to create snapshots directory: %w", err)
	}

	id, dir, err := m.allocate(root)
	if err != nil {
		return nil, err
	}

	if label == "" {
		label = DefaultLabel(id)
	}
	snap := &models.Snapshot{
		ID:         id,
		Label:      label,
		Playground: p.Name,
		Location:   dir,
	}

	if err := m.populate(p, snap); err != nil {
		log.Printf("⚠️ Snapshot %s of %s left incomplete: %v", id, p.Name, err)
		return snap, fmt.Errorf("%w: %v", workspace.ErrSnapshotIncomplete, err)
	}
	return snap, nil
}

// allocate creates snapshots/<now ms>, moving one millisecond forward while the id is taken.
func (m *Manager) allocate(root string) (string, string, error) {
	ms := m.now().UnixMilli()
	for i := 0; i < maxIDProbes; i++ {
		id := strconv.FormatInt(ms+int64(i), 10)
		dir := filepath.Join(root, id)

		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", fmt.Errorf("unable to create snapshot directory: %w", err)
		}
	}
	return "", "", fmt.Errorf("unable to allocate a snapshot id after %d attempts", maxIDProbes)
}

func (m *Manager) populate(p *models.Playground, snap *models.Snapshot) error {
	if err := workspace.WriteJSON(filepath.Join(snap.Location, workspace.MetaFile), Meta{Label: snap.Label}); err != nil {
		return err
	}

	src := filepath.Join(p.Location, workspace.ExtVarsFile)
	dst := filepath.Join(snap.Location, workspace.ExtVarsFile)
	if err := copyFile(src, dst); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("copy variables: %w", err)
		}
		if err := os.WriteFile(dst, []byte("[]"), 0644); err != nil {
			return fmt.Errorf("write variables: %w", err)
		}
	}

	if err := copyDirectory(
		filepath.Join(p.Location, workspace.ScriptsDir),
		filepath.Join(snap.Location, workspace.ScriptsDir),
	); err != nil {
		return fmt.Errorf("copy scripts: %w", err)
	}
	return nil
}

// Rename rewrites meta.json. An empty label restores the timestamp label.
func (m *Manager) Rename(ctx context.Context, snap *models.Snapshot, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !workspace.Exists(snap.Location) {
		return fmt.Errorf("snapshot %s: %w", snap.ID, workspace.ErrNotFound)
	}

	if label == "" {
		label = DefaultLabel(snap.ID)
	}
	if err := workspace.WriteJSON(filepath.Join(snap.Location, workspace.MetaFile), Meta{Label: label}); err != nil {
		return err
	}
	snap.Label = label
	return nil
}

// Delete closes editors on the snapshot's scripts, removes the snapshot and
// returns the name of its playground.
func (m *Manager) Delete(ctx context.Context, snap *models.Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !workspace.Exists(snap.Location) {
		return "", fmt.Errorf("snapshot %s: %w", snap.ID, workspace.ErrNotFound)
	}

	paths, err := ScriptFiles(snap.Location)
	if err != nil {
		log.Printf("⚠️ Failed to list scripts of snapshot %s: %v", snap.ID, err)
	}
	workspace.CloseAll(ctx, m.editors, paths...)

	if err := os.RemoveAll(snap.Location); err != nil {
		return "", fmt.Errorf("failed to delete snapshot %s: %w", snap.ID, err)
	}
	return snap.Playground, nil
}

// ScriptFiles lists every file under dir/scripts, test cases included
func ScriptFiles(dir string) ([]string, error) {
	scriptsDir := filepath.Join(dir, workspace.ScriptsDir)
	entries, err := workspace.Entries(scriptsDir, false)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(scriptsDir, e.Name()))
	}
	return paths, nil
}

// copyDirectory copies the tree rooted at source into target
func copyDirectory(source, target string) error {
	return filepath.Walk(source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(target, relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, 0755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(path, targetPath)
	})
}

func copyFile(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
