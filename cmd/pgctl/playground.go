package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andythehood/datatransformer-playground/internal/bundle"
)

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List playgrounds and their snapshots",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	playgrounds, err := store.List(commandContext(cmd))
	if err != nil {
		return err
	}
	if len(playgrounds) == 0 {
		fmt.Println("No playgrounds")
		return nil
	}

	for _, p := range playgrounds {
		fmt.Printf("%s\n", p.Name)
		for _, s := range p.Snapshots {
			fmt.Printf("  %s  %s\n", s.ID, s.Label)
		}
	}
	return nil
}

// --- create ---

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a playground with a default script",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	p, err := store.Create(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("✓ Playground %s created at %s\n", p.Name, p.Location)
	return nil
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a playground and all of its snapshots",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	if err := store.Delete(commandContext(cmd), args[0]); err != nil {
		return err
	}
	fmt.Printf("✓ Playground %s deleted\n", args[0])
	return nil
}

// --- export ---

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "Export a playground and its snapshots to a bundle file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	b, err := store.Export(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	data, err := bundle.Encode(b)
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out = b.FileName
	}
	if out == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("✓ Playground %s exported to %s (%d snapshots)\n", b.Name, out, len(b.Snapshots))
	return nil
}

// --- import ---

var importOverwrite bool

var importCmd = &cobra.Command{
	Use:   "import [bundle.json]",
	Short: "Import a playground bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	p, err := store.Import(commandContext(cmd), data, importOverwrite)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Playground %s imported (%d snapshots)\n", p.Name, len(p.Snapshots))
	return nil
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the bundle format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := bundle.GenerateJSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: playground-<name>-<date>.json, - for stdout)")
	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "Replace an existing playground of the same name")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(schemaCmd)
}
