package execution

import (
	"strconv"
	"strings"

	"github.com/andythehood/datatransformer-playground/pkg/models"
)

// ParseDiagnostic extracts the location from an error message of the form
//
//	[<script>:]<line>:<colStart>[-<colEnd>][>] <text>
//
// It reports false when the message carries no usable location.
func ParseDiagnostic(script, message string) (*models.Diagnostic, bool) {
	msg := strings.TrimSpace(message)
	if script != "" {
		msg = strings.TrimPrefix(msg, script+":")
	}

	space := strings.IndexByte(msg, ' ')
	if space < 0 {
		return nil, false
	}
	location := strings.TrimRight(msg[:space], ":>")
	text := strings.TrimSpace(msg[space+1:])

	lineStr, columns, ok := strings.Cut(location, ":")
	if !ok {
		return nil, false
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return nil, false
	}

	startStr, endStr, ranged := strings.Cut(columns, "-")
	start, err := strconv.Atoi(startStr)
	if err != nil || start < 1 {
		return nil, false
	}
	end := start
	if ranged {
		if end, err = strconv.Atoi(endStr); err != nil || end < start {
			return nil, false
		}
	}

	return &models.Diagnostic{
		Line:        line,
		ColumnStart: start,
		ColumnEnd:   end,
		Message:     text,
	}, true
}
