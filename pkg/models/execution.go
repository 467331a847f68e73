package models

// ExecRequest is the payload sent to the execution service's /exec endpoint
type ExecRequest struct {
	Script  string             `json:"script,omitempty"`
	Snippet string             `json:"snippet"`
	ExtVars []ExternalVariable `json:"extVars"`
}

// FormatRequest is the payload sent to the execution service's /format endpoint
type FormatRequest struct {
	Snippet string `json:"snippet"`
}

// ExecResponse is returned by both /exec and /format.
// Status mirrors an HTTP status: anything other than 200 is an error whose
// Message starts with a source location.
type ExecResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

// OK reports whether the service accepted the script
func (r *ExecResponse) OK() bool { return r.Status == 200 }

// Diagnostic is the location and text extracted from a failed response.
// Line and columns are 1-based as reported by the service.
type Diagnostic struct {
	Line        int    `json:"line"`
	ColumnStart int    `json:"columnStart"`
	ColumnEnd   int    `json:"columnEnd"`
	Message     string `json:"message"`
}

// RunRequest asks the store to execute a document
type RunRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// RunResult is what a run hands back to the UI layer
type RunResult struct {
	Container  Container     `json:"container"`
	Script     string        `json:"script"`
	Response   *ExecResponse `json:"response"`
	Diagnostic *Diagnostic   `json:"diagnostic,omitempty"`
	Expected   *string       `json:"expected,omitempty"`
}
