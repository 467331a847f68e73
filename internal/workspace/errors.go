package workspace

import "errors"

var (
	// ErrNameEmpty is returned when a playground, script or library name is blank
	ErrNameEmpty = errors.New("name cannot be empty")

	// ErrNameConflict is returned when the name is already taken in its container
	ErrNameConflict = errors.New("an entry with the same name already exists")

	// ErrInvalidName is returned for names that cannot be used as a single path segment
	ErrInvalidName = errors.New("invalid name")

	// ErrNotFound is returned when a playground, snapshot or script does not exist
	ErrNotFound = errors.New("not found")

	// ErrReadOnly is returned when a write targets a snapshot container
	ErrReadOnly = errors.New("snapshots are read-only")

	// ErrInvalidBundleType is returned when an import document is not a playground export
	ErrInvalidBundleType = errors.New("invalid file type, not a playground export")

	// ErrInvalidBundle is returned when a playground export fails structural validation
	ErrInvalidBundle = errors.New("invalid playground export")

	// ErrInvalidVariable is returned for duplicate variable names or unknown variable types
	ErrInvalidVariable = errors.New("invalid external variable")

	// ErrSnapshotIncomplete is returned alongside a snapshot whose copy step failed.
	// The snapshot directory is left in place.
	ErrSnapshotIncomplete = errors.New("snapshot copy incomplete")
)
