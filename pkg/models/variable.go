package models

// VariableType is the declared type of an external variable
type VariableType string

const (
	VariableString VariableType = "string"
	VariableJSON   VariableType = "json"
	VariableArray  VariableType = "array"
	VariableInt    VariableType = "int"
	VariableDouble VariableType = "double"
)

// Valid reports whether t is one of the supported types
func (t VariableType) Valid() bool {
	switch t {
	case VariableString, VariableJSON, VariableArray, VariableInt, VariableDouble:
		return true
	}
	return false
}

// ExternalVariable is one entry of a container's extVars.json
type ExternalVariable struct {
	Name  string       `json:"name" jsonschema:"required,minLength=1"`
	Type  VariableType `json:"type" jsonschema:"required,enum=string,enum=json,enum=array,enum=int,enum=double"`
	Value string       `json:"value"`
	Open  bool         `json:"open"`
}
