package models

import "strings"

// Kind identifies which entity an Entity value holds
type Kind string

const (
	KindPlayground Kind = "playground"
	KindSnapshot   Kind = "snapshot"
	KindScript     Kind = "script"
	KindTestCase   Kind = "testCase"
)

// Entity is the sum type over the four things a tree node can be.
// Only the types in this package implement it.
type Entity interface {
	Kind() Kind
	entity()
}

// Playground is a named, top-level unit of work
type Playground struct {
	Name      string     `json:"name"`
	Location  string     `json:"location"`
	Snapshots []Snapshot `json:"snapshots"`
}

func (*Playground) Kind() Kind { return KindPlayground }
func (*Playground) entity()    {}

// Snapshot finds one of the playground's snapshots by id
func (p *Playground) Snapshot(id string) (*Snapshot, bool) {
	for i := range p.Snapshots {
		if p.Snapshots[i].ID == id {
			return &p.Snapshots[i], true
		}
	}
	return nil, false
}

// Container returns the writable container backed by the playground directory
func (p *Playground) Container() Container {
	return Container{Playground: p.Name, Dir: p.Location}
}

// Snapshot is an immutable copy of a playground's scripts and variables
type Snapshot struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Playground string `json:"playground"`
	Location   string `json:"location"`
}

func (*Snapshot) Kind() Kind { return KindSnapshot }
func (*Snapshot) entity()    {}

// Container returns the read-only container backed by the snapshot directory
func (s *Snapshot) Container() Container {
	return Container{Playground: s.Playground, SnapshotID: s.ID, Dir: s.Location}
}

// Script is a named text asset inside a playground or snapshot
type Script struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Container Container `json:"container"`
	TestCase  *TestCase `json:"testCase,omitempty"`
}

func (*Script) Kind() Kind { return KindScript }
func (*Script) entity()    {}

// IsDefault reports whether this is the reserved default script
func (s *Script) IsDefault() bool { return s.Name == DefaultScript }

// TestCase is the expected output paired with a script
type TestCase struct {
	Script string `json:"script"`
	Path   string `json:"path"`
}

func (*TestCase) Kind() Kind { return KindTestCase }
func (*TestCase) entity()    {}

// ScriptPath returns the path of the script the test case belongs to
func (t *TestCase) ScriptPath() string {
	return strings.TrimSuffix(t.Path, TestCaseSuffix)
}

// DefaultScript is the reserved script name created with every playground
const DefaultScript = "default"

// TestCaseSuffix is appended to a script file name to form its test case file name
const TestCaseSuffix = ".test"

// Container is the directory that owns a script list and a variable list.
// SnapshotID is empty for a live playground.
type Container struct {
	Playground string `json:"playground"`
	SnapshotID string `json:"snapshotId,omitempty"`
	Dir        string `json:"-"`
}

// ReadOnly reports whether the container is a snapshot
func (c Container) ReadOnly() bool { return c.SnapshotID != "" }

// String renders the container as playground or playground@snapshot
func (c Container) String() string {
	if c.SnapshotID == "" {
		return c.Playground
	}
	return c.Playground + "@" + c.SnapshotID
}
