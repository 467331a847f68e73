package workspace

import (
	"context"
	"log"
)

// Editors closes open editor views on files that are about to be removed
type Editors interface {
	CloseIfOpen(ctx context.Context, path string) error
}

// NoEditors is used where no UI is attached, e.g. the command line tool
type NoEditors struct{}

func (NoEditors) CloseIfOpen(context.Context, string) error { return nil }

// CloseAll closes every path in order. Failures are logged and never stop the caller.
func CloseAll(ctx context.Context, editors Editors, paths ...string) {
	if editors == nil {
		return
	}
	for _, p := range paths {
		if err := editors.CloseIfOpen(ctx, p); err != nil {
			log.Printf("⚠️ Failed to close editor for %s: %v", p, err)
		}
	}
}
