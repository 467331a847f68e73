package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/andythehood/datatransformer-playground/internal/config"
	"github.com/andythehood/datatransformer-playground/internal/playground"
	"github.com/andythehood/datatransformer-playground/internal/workspace"
)

var storageRoot string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pgctl",
	Short:         "Manage playgrounds, snapshots and bundles on local storage",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// openStore builds a store over the configured storage root. No editors are
// attached and nothing is executed.
func openStore() (*playground.Store, error) {
	root := storageRoot
	if root == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		root = cfg.Storage.Root
	}
	return playground.NewStore(filepath.Join(root, workspace.PlaygroundsDir), workspace.NoEditors{}, nil), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageRoot, "root", "", "Storage root (overrides PLAYGROUND_ROOT)")
}
