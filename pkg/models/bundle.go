package models

// BundleType is the only accepted value of Bundle.Type
const BundleType = "playground-export"

// BundleVersion is written into every exported bundle
const BundleVersion = "1.0.0"

// Bundle is the portable export/import representation of a playground
type Bundle struct {
	Type      string             `json:"type" jsonschema:"required"`
	Version   string             `json:"version"`
	FileName  string             `json:"fileName,omitempty"`
	Name      string             `json:"name" jsonschema:"required,minLength=1"`
	CreatedAt int64              `json:"createdAt,omitempty"`
	ExtVars   []ExternalVariable `json:"extVars"`
	Scripts   []BundleScript     `json:"scripts"`
	Snapshots []BundleSnapshot   `json:"snapshots"`

	// Snippet is the single script of bundles written before scripts
	// existed. It is only read when Scripts is empty.
	Snippet string `json:"snippet,omitempty"`
}

// BundleScript carries one script and its optional test case
type BundleScript struct {
	Name     string  `json:"name" jsonschema:"required,minLength=1"`
	Snippet  string  `json:"snippet"`
	TestCase *string `json:"testCase,omitempty"`
}

// BundleSnapshot carries one snapshot of the exported playground
type BundleSnapshot struct {
	ID      int64              `json:"id" jsonschema:"required"`
	Label   string             `json:"label"`
	ExtVars []ExternalVariable `json:"extVars"`
	Scripts []BundleScript     `json:"scripts"`
	Snippet string             `json:"snippet,omitempty"`
}
