package workspace

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andythehood/datatransformer-playground/pkg/models"
)

// Location names the entity a path under the playgrounds root points at.
// Fields that do not apply are empty.
type Location struct {
	Playground string `json:"playground"`
	SnapshotID string `json:"snapshotId,omitempty"`
	Script     string `json:"script,omitempty"`
	TestCase   bool   `json:"testCase,omitempty"`
	File       string `json:"file,omitempty"`
}

// InSnapshot reports whether the location is inside a snapshot
func (l Location) InSnapshot() bool { return l.SnapshotID != "" }

// ParsePath splits path, relative to the playgrounds root, into a Location:
//
//	{playground}
//	{playground}/{file}
//	{playground}/scripts/{script}
//	{playground}/snapshots/{id}
//	{playground}/snapshots/{id}/{file}
//	{playground}/snapshots/{id}/scripts/{script}
func ParsePath(root, path string) (Location, error) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Location{}, fmt.Errorf("%s is not part of a playground: %w", path, ErrNotFound)
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	loc := Location{Playground: segments[0]}
	rest := segments[1:]

	if len(rest) >= 2 && rest[0] == SnapshotsDir {
		loc.SnapshotID = rest[1]
		rest = rest[2:]
	} else if len(rest) == 1 && rest[0] == SnapshotsDir {
		rest = nil
	}

	switch {
	case len(rest) == 0:
	case len(rest) == 1 && rest[0] == ScriptsDir:
	case len(rest) == 1:
		loc.File = rest[0]
	case len(rest) == 2 && rest[0] == ScriptsDir:
		loc.Script = rest[1]
		if strings.HasSuffix(loc.Script, models.TestCaseSuffix) {
			loc.Script = strings.TrimSuffix(loc.Script, models.TestCaseSuffix)
			loc.TestCase = true
		}
	default:
		return Location{}, fmt.Errorf("%s does not match the playground layout: %w", path, ErrNotFound)
	}

	return loc, nil
}
