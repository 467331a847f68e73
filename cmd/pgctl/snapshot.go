package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andythehood/datatransformer-playground/internal/workspace"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Take, rename and delete snapshots",
}

// --- snapshot take ---

var snapshotLabel string

var snapshotTakeCmd = &cobra.Command{
	Use:   "take [playground]",
	Short: "Copy a playground's scripts and variables into a new snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotTake,
}

func runSnapshotTake(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	snap, err := store.TakeSnapshot(commandContext(cmd), args[0], snapshotLabel)
	if err != nil {
		if snap == nil || !errors.Is(err, workspace.ErrSnapshotIncomplete) {
			return err
		}
		fmt.Fprintf(os.Stderr, "  ⚠ %v\n", err)
	}
	fmt.Printf("✓ Snapshot %s taken: %s\n", snap.ID, snap.Label)
	return nil
}

// --- snapshot rename ---

var snapshotRenameCmd = &cobra.Command{
	Use:   "rename [playground] [id] [label]",
	Short: "Relabel a snapshot; an empty label restores the timestamp label",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runSnapshotRename,
}

func runSnapshotRename(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	label := ""
	if len(args) == 3 {
		label = args[2]
	}
	snap, err := store.RenameSnapshot(commandContext(cmd), args[0], args[1], label)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Snapshot %s renamed: %s\n", snap.ID, snap.Label)
	return nil
}

// --- snapshot delete ---

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete [playground] [id]",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(2),
	RunE:  runSnapshotDelete,
}

func runSnapshotDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	if err := store.DeleteSnapshot(commandContext(cmd), args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("✓ Snapshot %s of %s deleted\n", args[1], args[0])
	return nil
}

func init() {
	snapshotTakeCmd.Flags().StringVar(&snapshotLabel, "label", "", "Snapshot label (default: creation time)")

	snapshotCmd.AddCommand(snapshotTakeCmd)
	snapshotCmd.AddCommand(snapshotRenameCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
	rootCmd.AddCommand(snapshotCmd)
}
