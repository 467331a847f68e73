// Package workspace holds the on-disk layout shared by every store:
//
//	<root>/playgrounds/<playground>/
//	  extVars.json
//	  scripts/<script>
//	  scripts/<script>.test
//	  snapshots/<id>/meta.json
//	  snapshots/<id>/extVars.json
//	  snapshots/<id>/scripts/...
//	<root>/libraries/<name>.libsonnet
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/andythehood/datatransformer-playground/pkg/models"
)

const (
	PlaygroundsDir = "playgrounds"
	LibrariesDir   = "libraries"
	ScriptsDir     = "scripts"
	SnapshotsDir   = "snapshots"
	ExtVarsFile    = "extVars.json"
	MetaFile       = "meta.json"
)

// StarterSnippet is written to every new script
const StarterSnippet = "\n// Import the additional functions library\nlocal f = import 'functions';\n\n{\n  id: f.getExecutionId(),\n}"

// reserved entries are never treated as playgrounds, snapshots or scripts
var reserved = map[string]bool{
	".DS_Store":   true,
	"Thumbs.db":   true,
	"desktop.ini": true,
}

// Hidden reports whether a directory entry should be skipped when listing
func Hidden(name string) bool {
	return reserved[name] || strings.HasPrefix(name, ".")
}

// ValidateName checks a user supplied name before anything touches the disk
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameEmpty
	}
	if name == "." || name == ".." || Hidden(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ScriptsPath returns the scripts directory of a container
func ScriptsPath(c models.Container) string {
	return filepath.Join(c.Dir, ScriptsDir)
}

// ExtVarsPath returns the variables file of a container
func ExtVarsPath(c models.Container) string {
	return filepath.Join(c.Dir, ExtVarsFile)
}

// Entries lists the visible entries of dir. A missing directory is an empty list.
// When dirs is true only directories are returned, otherwise only regular files.
func Entries(dir string, dirs bool) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	visible := entries[:0]
	for _, e := range entries {
		if Hidden(e.Name()) || e.IsDir() != dirs {
			continue
		}
		visible = append(visible, e)
	}
	return visible, nil
}

// WriteJSON writes v pretty-printed with a two space indent
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Exists reports whether path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
