package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scriptsSnapshot string

var scriptsCmd = &cobra.Command{
	Use:   "scripts [playground]",
	Short: "List the scripts of a playground or snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runScripts,
}

func runScripts(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	list, err := store.Scripts(commandContext(cmd), args[0], scriptsSnapshot)
	if err != nil {
		return err
	}
	for _, s := range list {
		marker := ""
		if s.TestCase != nil {
			marker = "  [test case]"
		}
		fmt.Printf("%s%s\n", s.Name, marker)
	}
	return nil
}

// --- scripts add ---

var scriptsAddCmd = &cobra.Command{
	Use:   "add [playground] [script]",
	Short: "Add a script holding the starter snippet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		script, err := store.AddScript(commandContext(cmd), args[0], "", args[1])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Script %s added at %s\n", script.Name, script.Path)
		return nil
	},
}

// --- scripts rm ---

var scriptsRemoveCmd = &cobra.Command{
	Use:   "rm [playground] [script]",
	Short: "Delete a script and its test case",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.DeleteScript(commandContext(cmd), args[0], "", args[1]); err != nil {
			return err
		}
		fmt.Printf("✓ Script %s deleted\n", args[1])
		return nil
	},
}

// --- scripts test ---

var scriptsTestCmd = &cobra.Command{
	Use:   "test [playground] [script]",
	Short: "Add an expected output to a script, keeping an existing one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		testCase, err := store.AddTestCase(commandContext(cmd), args[0], "", args[1])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Test case at %s\n", testCase.Path)
		return nil
	},
}

func init() {
	scriptsCmd.Flags().StringVar(&scriptsSnapshot, "snapshot", "", "List the scripts of this snapshot id")

	scriptsCmd.AddCommand(scriptsAddCmd)
	scriptsCmd.AddCommand(scriptsRemoveCmd)
	scriptsCmd.AddCommand(scriptsTestCmd)
	rootCmd.AddCommand(scriptsCmd)
}
