// Package bundle converts a playground, with all of its snapshots, to and
// from the portable "playground-export" JSON document.
package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andythehood/datatransformer-playground/internal/scripts"
	"github.com/andythehood/datatransformer-playground/internal/snapshot"
	"github.com/andythehood/datatransformer-playground/internal/variables"
	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

// snapshotReaders bounds how many snapshots are read at once during export
const snapshotReaders = 4

// Codec reads playgrounds into bundles and writes bundles back to disk
type Codec struct {
	scripts   *scripts.Store
	variables *variables.Store
	snapshots *snapshot.Manager
	now       func() time.Time
}

// NewCodec creates a codec on top of the given stores
func NewCodec(scriptStore *scripts.Store, variableStore *variables.Store, snapshots *snapshot.Manager) *Codec {
	return &Codec{
		scripts:   scriptStore,
		variables: variableStore,
		snapshots: snapshots,
		now:       time.Now,
	}
}

// FileName is the suggested file name of an export made at t, using the local calendar date
func FileName(playground string, t time.Time) string {
	return fmt.Sprintf("playground-%s-%s.json", playground, t.Local().Format("2006-01-02"))
}

// Export reads the playground and every snapshot into a bundle
func (c *Codec) Export(ctx context.Context, p *models.Playground) (*models.Bundle, error) {
	now := c.now()

	extVars, scriptList, err := c.readContainer(ctx, p.Container())
	if err != nil {
		return nil, err
	}

	snaps, err := c.snapshots.List(ctx, p)
	if err != nil {
		return nil, err
	}

	// Directories under snapshots/ that are not millisecond ids are not snapshots
	valid := snaps[:0]
	ids := make([]int64, 0, len(snaps))
	for _, snap := range snaps {
		id, err := strconv.ParseInt(snap.ID, 10, 64)
		if err != nil || id <= 0 {
			log.Printf("⚠️ Skipping %s of %s on export: not a snapshot id", snap.ID, p.Name)
			continue
		}
		valid = append(valid, snap)
		ids = append(ids, id)
	}
	snaps = valid

	exported := make([]models.BundleSnapshot, len(snaps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotReaders)
	for i := range snaps {
		i := i
		g.Go(func() error {
			id := ids[i]
			vars, list, err := c.readContainer(gctx, snaps[i].Container())
			if err != nil {
				return err
			}
			exported[i] = models.BundleSnapshot{
				ID:      id,
				Label:   snaps[i].Label,
				ExtVars: vars,
				Scripts: list,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export %s: %w", p.Name, err)
	}

	return &models.Bundle{
		Type:      models.BundleType,
		Version:   models.BundleVersion,
		FileName:  FileName(p.Name, now),
		Name:      p.Name,
		CreatedAt: now.UnixMilli(),
		ExtVars:   extVars,
		Scripts:   scriptList,
		Snapshots: exported,
	}, nil
}

func (c *Codec) readContainer(ctx context.Context, container models.Container) ([]models.ExternalVariable, []models.BundleScript, error) {
	vars, err := c.variables.Load(ctx, container)
	if err != nil {
		return nil, nil, err
	}

	list, err := c.scripts.List(ctx, container)
	if err != nil {
		return nil, nil, err
	}

	out := make([]models.BundleScript, 0, len(list))
	for _, script := range list {
		content, err := c.scripts.Read(script)
		if err != nil {
			return nil, nil, err
		}
		testCase, err := c.scripts.ReadTestCase(script)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, models.BundleScript{
			Name:     script.Name,
			Snippet:  content,
			TestCase: testCase,
		})
	}
	return []models.ExternalVariable(vars), out, nil
}

// Encode renders a bundle as pretty-printed JSON
func Encode(b *models.Bundle) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal bundle: %w", err)
	}
	return data, nil
}

// Decode parses and validates an import document. Nothing is written.
func Decode(data []byte) (*models.Bundle, error) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", workspace.ErrInvalidBundle, err)
	}
	if header.Type != models.BundleType {
		return nil, workspace.ErrInvalidBundleType
	}

	problems, err := validateStructure(data)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", workspace.ErrInvalidBundle, strings.Join(problems, "; "))
	}

	var b models.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", workspace.ErrInvalidBundle, err)
	}
	if err := validateContent(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// validateContent checks what the schema cannot: names usable on disk and uniqueness.
func validateContent(b *models.Bundle) error {
	if err := workspace.ValidateName(b.Name); err != nil {
		return fmt.Errorf("%w: playground name: %v", workspace.ErrInvalidBundle, err)
	}
	if err := validateScripts(b.Scripts); err != nil {
		return err
	}
	if err := variables.Validate(b.ExtVars); err != nil {
		return fmt.Errorf("%w: %v", workspace.ErrInvalidBundle, err)
	}

	ids := make(map[int64]bool, len(b.Snapshots))
	for _, s := range b.Snapshots {
		if s.ID <= 0 || ids[s.ID] {
			return fmt.Errorf("%w: snapshot id %d is invalid or repeated", workspace.ErrInvalidBundle, s.ID)
		}
		ids[s.ID] = true

		if err := validateScripts(s.Scripts); err != nil {
			return err
		}
		if err := variables.Validate(s.ExtVars); err != nil {
			return fmt.Errorf("%w: snapshot %d: %v", workspace.ErrInvalidBundle, s.ID, err)
		}
	}
	return nil
}

func validateScripts(list []models.BundleScript) error {
	names := make(map[string]bool, len(list))
	for _, s := range list {
		if err := workspace.ValidateName(s.Name); err != nil {
			return fmt.Errorf("%w: script name: %v", workspace.ErrInvalidBundle, err)
		}
		if strings.HasSuffix(s.Name, models.TestCaseSuffix) || names[s.Name] {
			return fmt.Errorf("%w: script %q is invalid or repeated", workspace.ErrInvalidBundle, s.Name)
		}
		names[s.Name] = true
	}
	return nil
}

// Write lays out a decoded bundle under dir, the playground directory
func (c *Codec) Write(ctx context.Context, dir string, b *models.Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeContainer(dir, nil, b.ExtVars, b.Scripts, b.Snippet); err != nil {
		return err
	}

	snapshotsDir := filepath.Join(dir, workspace.SnapshotsDir)
	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		return fmt.Errorf("unable to create directory: %w", err)
	}

	for _, s := range b.Snapshots {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := strconv.FormatInt(s.ID, 10)
		label := s.Label
		if label == "" {
			label = snapshot.DefaultLabel(id)
		}
		meta := &snapshot.Meta{Label: label}
		if err := writeContainer(filepath.Join(snapshotsDir, id), meta, s.ExtVars, s.Scripts, s.Snippet); err != nil {
			return fmt.Errorf("snapshot %s: %w", id, err)
		}
	}
	return nil
}

func writeContainer(dir string, meta *snapshot.Meta, extVars []models.ExternalVariable, list []models.BundleScript, legacySnippet string) error {
	scriptsDir := filepath.Join(dir, workspace.ScriptsDir)
	if err := os.MkdirAll(scriptsDir, 0755); err != nil {
		return fmt.Errorf("unable to create directory: %w", err)
	}

	if meta != nil {
		if err := workspace.WriteJSON(filepath.Join(dir, workspace.MetaFile), meta); err != nil {
			return err
		}
	}

	if extVars == nil {
		extVars = []models.ExternalVariable{}
	}
	if err := workspace.WriteJSON(filepath.Join(dir, workspace.ExtVarsFile), extVars); err != nil {
		return err
	}

	if len(list) == 0 {
		list = []models.BundleScript{{Name: models.DefaultScript, Snippet: legacySnippet}}
	}
	for _, s := range list {
		path := filepath.Join(scriptsDir, s.Name)
		if err := os.WriteFile(path, []byte(s.Snippet), 0644); err != nil {
			return fmt.Errorf("failed to write script %q: %w", s.Name, err)
		}
		if s.TestCase != nil {
			if err := os.WriteFile(path+models.TestCaseSuffix, []byte(*s.TestCase), 0644); err != nil {
				return fmt.Errorf("failed to write test case of %q: %w", s.Name, err)
			}
		}
	}
	return nil
}
